package services

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/dmitrijs2005/gophauth/internal/server/auth"
	"github.com/dmitrijs2005/gophauth/internal/server/ledger"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/repotest"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type fixture struct {
	db     *sql.DB
	repos  repomanager.RepositoryManager
	ledger ledger.Ledger
	codec  *auth.Codec
	hasher auth.Hasher
	auth   *AuthService
	guard  *AccessGuard
	users  *UserService
}

func testCodecConfig() auth.CodecConfig {
	return auth.CodecConfig{
		AccessSecret:  "access-secret",
		RefreshSecret: "refresh-secret",
		AccessTTL:     time.Minute,
		RefreshTTL:    time.Hour,
	}
}

func newFixture(t *testing.T, opts AuthOptions) *fixture {
	t.Helper()

	db, repos := repotest.NewSQLite(t)
	codec, err := auth.NewCodec(testCodecConfig())
	require.NoError(t, err)

	f := &fixture{
		db:     db,
		repos:  repos,
		ledger: ledger.NewSQLLedger(db, repos),
		codec:  codec,
		hasher: auth.NewBcryptHasher(bcrypt.MinCost),
	}
	f.auth = NewAuthService(db, repos, f.ledger, codec, f.hasher, logging.Nop(), opts)
	f.guard = NewAccessGuard(db, repos, f.ledger, codec)
	f.users = NewUserService(db, repos, f.hasher, logging.Nop())
	return f
}

// pastCodec mints tokens with the fixture's secrets that are already expired.
func pastCodec(t *testing.T) *auth.Codec {
	t.Helper()
	cfg := testCodecConfig()
	cfg.Now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	c, err := auth.NewCodec(cfg)
	require.NoError(t, err)
	return c
}

func (f *fixture) register(t *testing.T, username, password string) (*models.User, *TokenPair) {
	t.Helper()
	u, pair, err := f.auth.Register(context.Background(), RegisterInput{Username: username, Password: password, Email: username + "@mail.com"})
	require.NoError(t, err)
	return u, pair
}

func bearer(token string) string {
	return "Bearer " + token
}
