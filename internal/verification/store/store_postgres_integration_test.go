//go:build integration

package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"loadvoice/internal/verification/store"
	"loadvoice/pkg/requestcontext"
	"loadvoice/pkg/sentinel"
	"loadvoice/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *store.PostgresStore
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.postgres = mgr.GetPostgres(s.T())
	s.store = store.NewPostgresStore(s.postgres.Pool)
	s.Require().NoError(s.store.EnsureSchema(context.Background()))
}

func (s *PostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), "carrier_verifications"))
}

func (s *PostgresStoreSuite) TestRoundTrip() {
	ctx := context.Background()
	rec := verifiedRecord(time.Now().UTC().Truncate(time.Millisecond), 24*time.Hour)

	s.Require().NoError(s.store.Save(ctx, "mc:123456", rec))

	got, err := s.store.Find(ctx, "mc:123456")
	s.Require().NoError(err)
	s.Equal(rec.Identifier, got.Identifier)
	s.Equal(rec.Assessment.Level, got.Assessment.Level)
}

func (s *PostgresStoreSuite) TestMissingKey() {
	_, err := s.store.Find(context.Background(), "mc:404")
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestUpsertSupersedes() {
	ctx := context.Background()
	first := verifiedRecord(time.Now().Add(-2*time.Hour), 24*time.Hour)
	second := verifiedRecord(time.Now(), 24*time.Hour)

	s.Require().NoError(s.store.Save(ctx, "mc:123456", first))
	s.Require().NoError(s.store.Save(ctx, "mc:123456", second))

	got, err := s.store.Find(ctx, "mc:123456")
	s.Require().NoError(err)
	s.True(second.VerifiedAt.Equal(got.VerifiedAt))
}

func (s *PostgresStoreSuite) TestInvalidate() {
	ctx := context.Background()
	rec := verifiedRecord(time.Now(), 24*time.Hour)

	s.Require().NoError(s.store.Save(ctx, "mc:123456", rec))
	s.Require().NoError(s.store.Invalidate(ctx, "mc:123456"))

	_, err := s.store.Find(ctx, "mc:123456")
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestPurgeExpired() {
	ctx := context.Background()

	fresh := verifiedRecord(time.Now(), 24*time.Hour)
	ancient := verifiedRecord(time.Now().Add(-30*24*time.Hour), 24*time.Hour)

	s.Require().NoError(s.store.Save(ctx, "mc:fresh", fresh))
	s.Require().NoError(s.store.Save(ctx, "mc:ancient", ancient))

	purged, err := s.store.PurgeExpired(requestcontext.WithTime(ctx, time.Now()))
	s.Require().NoError(err)
	s.Equal(int64(1), purged)

	_, err = s.store.Find(ctx, "mc:ancient")
	s.ErrorIs(err, sentinel.ErrNotFound)
	_, err = s.store.Find(ctx, "mc:fresh")
	s.NoError(err)
}
