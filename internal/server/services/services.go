// Package services contains server-side business logic: the session engine
// (AuthService), request authentication (AccessGuard) and user queries
// (UserService).
package services

import (
	"context"

	"github.com/dmitrijs2005/gophauth/internal/dbx"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/users"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/dmitrijs2005/gophauth/internal/server/services"

// UserRepositories vends user repositories bound to a DBTX.
// repomanager.RepositoryManager satisfies it.
type UserRepositories interface {
	Users(db dbx.DBTX) users.Repository
}

func startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, name)
}

// endSpan records err on span and ends it.
func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
