package unify

import (
	"context"
	"net/http"
	"testing"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Ramsey-B/aster/pkg/matching"
	"github.com/Ramsey-B/aster/pkg/models"
)

type fakeProfiles struct {
	profiles []models.UnifiedProfile
	created  []string
}

func (f *fakeProfiles) Create(ctx context.Context, canonicalName string) (*models.UnifiedProfile, error) {
	f.created = append(f.created, canonicalName)
	p := models.UnifiedProfile{ID: "profile-new", CanonicalName: canonicalName, Status: models.ProfileStatusActive}
	f.profiles = append(f.profiles, p)
	return &p, nil
}

func (f *fakeProfiles) Get(ctx context.Context, id string) (*models.UnifiedProfile, error) {
	for i := range f.profiles {
		if f.profiles[i].ID == id {
			return &f.profiles[i], nil
		}
	}
	return nil, httperror.NewHTTPError(http.StatusNotFound, "profile not found")
}

func (f *fakeProfiles) ListActive(ctx context.Context) ([]models.UnifiedProfile, error) {
	return f.profiles, nil
}

func (f *fakeProfiles) CountActive(ctx context.Context) (int, error) {
	return len(f.profiles), nil
}

type identityLink struct {
	identityID string
	profileID  string
	confidence float64
	verified   bool
}

// fakeIdentities backs both the service and the match cascade. getQueue
// overrides GetByPlatformIdentifier responses in call order before the
// byKey map is consulted.
type fakeIdentities struct {
	getQueue  []*models.CandidateIdentity
	queueUsed int
	byKey     map[string]*models.CandidateIdentity
	pool      []models.CandidateIdentity
	created   []*models.PlatformIdentity
	links     []identityLink
	listCalls int
}

func (f *fakeIdentities) Create(ctx context.Context, identity *models.PlatformIdentity) (*models.PlatformIdentity, error) {
	out := *identity
	out.ID = "identity-new"
	f.created = append(f.created, &out)
	return &out, nil
}

func (f *fakeIdentities) Get(ctx context.Context, id string) (*models.PlatformIdentity, error) {
	for _, identity := range f.created {
		if identity.ID == id {
			return identity, nil
		}
	}
	return nil, httperror.NewHTTPError(http.StatusNotFound, "identity not found")
}

func (f *fakeIdentities) GetByPlatformIdentifier(ctx context.Context, platform models.Platform, identifier string) (*models.CandidateIdentity, error) {
	if f.queueUsed < len(f.getQueue) {
		out := f.getQueue[f.queueUsed]
		f.queueUsed++
		return out, nil
	}
	return f.byKey[string(platform)+"|"+identifier], nil
}

func (f *fakeIdentities) ListCandidates(ctx context.Context) ([]models.CandidateIdentity, error) {
	f.listCalls++
	return f.pool, nil
}

func (f *fakeIdentities) ListByProfile(ctx context.Context, profileID string) ([]models.PlatformIdentity, error) {
	out := []models.PlatformIdentity{}
	for _, identity := range f.created {
		if identity.ProfileID != nil && *identity.ProfileID == profileID {
			out = append(out, *identity)
		}
	}
	return out, nil
}

func (f *fakeIdentities) LinkToProfile(ctx context.Context, identityID, profileID string, confidence float64, verified bool) error {
	f.links = append(f.links, identityLink{identityID, profileID, confidence, verified})
	return nil
}

func (f *fakeIdentities) Count(ctx context.Context) (int, error) {
	return len(f.created), nil
}

type fakeCandidates struct {
	created    []*models.MatchCandidate
	resolved   map[string]string // id -> status
	reviewedBy map[string]string
	pending    int
}

func (f *fakeCandidates) Create(ctx context.Context, candidate *models.MatchCandidate) (*models.MatchCandidate, error) {
	out := *candidate
	out.ID = "candidate-new"
	out.Status = models.MatchCandidateStatusPending
	f.created = append(f.created, &out)
	return &out, nil
}

func (f *fakeCandidates) Get(ctx context.Context, id string) (*models.MatchCandidate, error) {
	for _, candidate := range f.created {
		if candidate.ID == id {
			return candidate, nil
		}
	}
	return nil, httperror.NewHTTPError(http.StatusNotFound, "candidate not found")
}

func (f *fakeCandidates) ListByStatus(ctx context.Context, status string) ([]models.MatchCandidate, error) {
	out := []models.MatchCandidate{}
	for _, candidate := range f.created {
		if candidate.Status == status {
			out = append(out, *candidate)
		}
	}
	return out, nil
}

func (f *fakeCandidates) Resolve(ctx context.Context, id, status, reviewedBy string) (*models.MatchCandidate, error) {
	candidate, err := f.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if candidate.Status != models.MatchCandidateStatusPending {
		return nil, httperror.NewHTTPErrorf(http.StatusConflict, "candidate already %s", candidate.Status)
	}
	if f.resolved == nil {
		f.resolved = map[string]string{}
		f.reviewedBy = map[string]string{}
	}
	candidate.Status = status
	f.resolved[id] = status
	f.reviewedBy[id] = reviewedBy
	return candidate, nil
}

func (f *fakeCandidates) CountPending(ctx context.Context) (int, error) {
	return f.pending, nil
}

type stubCompleter struct {
	completion string
}

func (s *stubCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	return s.completion, nil
}

type fixture struct {
	service    *Service
	profiles   *fakeProfiles
	identities *fakeIdentities
	candidates *fakeCandidates
}

func newFixture(identities *fakeIdentities) *fixture {
	log := zap.NewNop()
	profiles := &fakeProfiles{}
	candidates := &fakeCandidates{}

	cascade := matching.NewCascade(
		matching.NewDeterministic(identities, log, "IN"),
		matching.NewFuzzy(identities, matching.NewScorer(), log, "IN"),
		matching.NewLLMMatcher(&stubCompleter{completion: `{"is_match": false}`}, log),
		identities,
		log,
		matching.CascadeConfig{FuzzyThreshold: 0.65, LLMFloor: 0.65},
		"IN",
	)

	service := NewService(profiles, identities, candidates, cascade, log, Config{
		AutoAcceptThreshold: 0.85,
		ReviewThreshold:     0.65,
		PhoneRegion:         "IN",
	})

	return &fixture{service: service, profiles: profiles, identities: identities, candidates: candidates}
}

func TestCreateIdentity(t *testing.T) {
	t.Run("unsupported platform rejected", func(t *testing.T) {
		f := newFixture(&fakeIdentities{})
		_, err := f.service.CreateIdentity(context.Background(), &models.CreateIdentityRequest{
			Platform:   "myspace",
			Identifier: "tom",
		})
		require.Error(t, err)
		assert.Equal(t, http.StatusBadRequest, httperror.GetStatusCode(err))
	})

	t.Run("invalid identifier rejected", func(t *testing.T) {
		f := newFixture(&fakeIdentities{})
		_, err := f.service.CreateIdentity(context.Background(), &models.CreateIdentityRequest{
			Platform:   models.PlatformEmail,
			Identifier: "not-an-email",
		})
		require.Error(t, err)
		assert.Equal(t, http.StatusBadRequest, httperror.GetStatusCode(err))
	})

	t.Run("duplicate identifier conflicts", func(t *testing.T) {
		identities := &fakeIdentities{byKey: map[string]*models.CandidateIdentity{
			"email|sara.j@xyz.com": {PlatformIdentity: models.PlatformIdentity{ID: "id-1"}},
		}}
		f := newFixture(identities)
		_, err := f.service.CreateIdentity(context.Background(), &models.CreateIdentityRequest{
			Platform:   models.PlatformEmail,
			Identifier: " Sara.J@XYZ.com ",
		})
		require.Error(t, err)
		assert.Equal(t, http.StatusConflict, httperror.GetStatusCode(err))
		assert.Empty(t, identities.created)
	})

	t.Run("deterministic match links verified", func(t *testing.T) {
		profileID := "profile-1"
		hit := &models.CandidateIdentity{}
		hit.ID = "id-1"
		hit.ProfileID = &profileID

		// first lookup is the duplicate check, second is the cascade
		// probe; the gap between them simulates a concurrent insert of
		// the same pair
		identities := &fakeIdentities{getQueue: []*models.CandidateIdentity{nil, hit}}
		f := newFixture(identities)

		result, err := f.service.CreateIdentity(context.Background(), &models.CreateIdentityRequest{
			Platform:   models.PlatformEmail,
			Identifier: "sara.j@xyz.com",
		})
		require.NoError(t, err)
		require.NotNil(t, result.Match)
		assert.Equal(t, models.MatchTypeDeterministic, result.Match.MatchType)
		require.NotNil(t, result.Identity.ProfileID)
		assert.Equal(t, "profile-1", *result.Identity.ProfileID)
		assert.Equal(t, 1.0, result.Identity.ConfidenceScore)
		assert.True(t, result.Identity.Verified)
		assert.Empty(t, f.candidates.created)
	})

	t.Run("high confidence fuzzy match links unverified", func(t *testing.T) {
		profileID := "profile-1"
		candidate := models.CandidateIdentity{}
		candidate.ID = "id-1"
		candidate.ProfileID = &profileID
		candidate.Platform = models.PlatformInstagram
		candidate.Identifier = "sara_j"

		identities := &fakeIdentities{pool: []models.CandidateIdentity{candidate}}
		f := newFixture(identities)

		result, err := f.service.CreateIdentity(context.Background(), &models.CreateIdentityRequest{
			Platform:   models.PlatformInstagram,
			Identifier: "@Sara_J",
		})
		require.NoError(t, err)
		require.NotNil(t, result.Match)
		assert.Equal(t, models.MatchTypeFuzzy, result.Match.MatchType)
		require.NotNil(t, result.Identity.ProfileID)
		assert.Equal(t, "profile-1", *result.Identity.ProfileID)
		assert.False(t, result.Identity.Verified)
		assert.False(t, result.NewProfileCreated)
		assert.Empty(t, f.candidates.created)
	})

	t.Run("mid confidence match queues a candidate", func(t *testing.T) {
		profileID := "profile-1"
		candidate := models.CandidateIdentity{}
		candidate.ID = "id-1"
		candidate.ProfileID = &profileID
		candidate.Platform = models.PlatformInstagram
		candidate.Identifier = "sarah_j"

		identities := &fakeIdentities{pool: []models.CandidateIdentity{candidate}}
		f := newFixture(identities)

		result, err := f.service.CreateIdentity(context.Background(), &models.CreateIdentityRequest{
			Platform:    models.PlatformInstagram,
			Identifier:  "sara_j",
			DisplayName: "Sara Johnson",
		})
		require.NoError(t, err)
		assert.Nil(t, result.Identity.ProfileID, "identity stays unlinked until review")
		assert.Equal(t, "candidate-new", result.CandidateID)
		require.Len(t, f.candidates.created, 1)
		queued := f.candidates.created[0]
		assert.Equal(t, "identity-new", queued.SourceIdentityID)
		assert.Equal(t, "profile-1", queued.TargetProfileID)
		assert.Equal(t, models.MatchTypeFuzzy, queued.MatchType)
		assert.Equal(t, "sara_j", queued.MatchDetails.Data.Identifier)
		assert.Empty(t, f.profiles.created, "no new profile while the candidate is pending")
	})

	t.Run("no match with display name seeds a profile", func(t *testing.T) {
		identities := &fakeIdentities{}
		f := newFixture(identities)

		result, err := f.service.CreateIdentity(context.Background(), &models.CreateIdentityRequest{
			Platform:    models.PlatformEmail,
			Identifier:  "sara.j@xyz.com",
			DisplayName: "sara johnson",
		})
		require.NoError(t, err)
		assert.True(t, result.NewProfileCreated)
		require.Len(t, f.profiles.created, 1)
		assert.Equal(t, "Sara Johnson", f.profiles.created[0])
		require.Len(t, identities.links, 1)
		assert.Equal(t, identityLink{"identity-new", "profile-new", 1.0, true}, identities.links[0])
	})

	t.Run("no match without display name stays orphaned", func(t *testing.T) {
		identities := &fakeIdentities{}
		f := newFixture(identities)

		result, err := f.service.CreateIdentity(context.Background(), &models.CreateIdentityRequest{
			Platform:   models.PlatformEmail,
			Identifier: "sara.j@xyz.com",
		})
		require.NoError(t, err)
		assert.Nil(t, result.Identity.ProfileID)
		assert.False(t, result.NewProfileCreated)
		assert.Empty(t, f.profiles.created)
	})

	t.Run("auto_match false skips the cascade", func(t *testing.T) {
		profileID := "profile-1"
		candidate := models.CandidateIdentity{}
		candidate.ID = "id-1"
		candidate.ProfileID = &profileID
		candidate.Platform = models.PlatformInstagram
		candidate.Identifier = "sara_j"

		identities := &fakeIdentities{pool: []models.CandidateIdentity{candidate}}
		f := newFixture(identities)

		noMatch := false
		result, err := f.service.CreateIdentity(context.Background(), &models.CreateIdentityRequest{
			Platform:   models.PlatformInstagram,
			Identifier: "sara_j",
			AutoMatch:  &noMatch,
		})
		require.NoError(t, err)
		assert.Nil(t, result.Match)
		assert.Nil(t, result.Identity.ProfileID)
		assert.Zero(t, identities.listCalls)
	})
}

func TestResolve(t *testing.T) {
	t.Run("empty identifiers rejected", func(t *testing.T) {
		f := newFixture(&fakeIdentities{})
		_, err := f.service.Resolve(context.Background(), &models.ResolveRequest{})
		require.Error(t, err)
		assert.Equal(t, http.StatusBadRequest, httperror.GetStatusCode(err))
	})

	t.Run("returns cascade matches", func(t *testing.T) {
		profileID := "profile-1"
		hit := &models.CandidateIdentity{}
		hit.ID = "id-1"
		hit.ProfileID = &profileID

		identities := &fakeIdentities{byKey: map[string]*models.CandidateIdentity{
			"email|sara.j@xyz.com": hit,
		}}
		f := newFixture(identities)

		resp, err := f.service.Resolve(context.Background(), &models.ResolveRequest{
			Identifiers: map[models.Platform]string{models.PlatformEmail: "sara.j@xyz.com"},
		})
		require.NoError(t, err)
		assert.Equal(t, 1, resp.MatchCount)
		require.Len(t, resp.Matches, 1)
		assert.Equal(t, models.MatchTypeDeterministic, resp.Matches[0].MatchType)
	})
}

func TestNormalize(t *testing.T) {
	f := newFixture(&fakeIdentities{})

	resp := f.service.Normalize(&models.NormalizeRequest{Platform: models.PlatformEmail, Value: " Sara.J@XYZ.com "})
	assert.True(t, resp.Valid)
	assert.Equal(t, "sara.j@xyz.com", resp.Normalized)

	resp = f.service.Normalize(&models.NormalizeRequest{Platform: models.PlatformEmail, Value: "not-an-email"})
	assert.False(t, resp.Valid)
	assert.Empty(t, resp.Normalized)
}

func TestCreateProfile(t *testing.T) {
	f := newFixture(&fakeIdentities{})

	t.Run("normalizes the canonical name", func(t *testing.T) {
		profile, err := f.service.CreateProfile(context.Background(), &models.CreateProfileRequest{CanonicalName: "  sara   johnson "})
		require.NoError(t, err)
		assert.Equal(t, "Sara Johnson", profile.CanonicalName)
	})

	t.Run("blank name rejected", func(t *testing.T) {
		_, err := f.service.CreateProfile(context.Background(), &models.CreateProfileRequest{CanonicalName: "   "})
		require.Error(t, err)
		assert.Equal(t, http.StatusBadRequest, httperror.GetStatusCode(err))
	})
}

func TestListCandidates(t *testing.T) {
	f := newFixture(&fakeIdentities{})

	t.Run("unknown status rejected", func(t *testing.T) {
		_, err := f.service.ListCandidates(context.Background(), "escalated")
		require.Error(t, err)
		assert.Equal(t, http.StatusBadRequest, httperror.GetStatusCode(err))
	})

	t.Run("defaults to pending", func(t *testing.T) {
		_, err := f.candidates.Create(context.Background(), &models.MatchCandidate{SourceIdentityID: "id-1", TargetProfileID: "profile-1"})
		require.NoError(t, err)

		out, err := f.service.ListCandidates(context.Background(), "")
		require.NoError(t, err)
		assert.Len(t, out, 1)
	})
}

func TestReviewCandidates(t *testing.T) {
	newReviewFixture := func(t *testing.T) *fixture {
		f := newFixture(&fakeIdentities{})
		_, err := f.candidates.Create(context.Background(), &models.MatchCandidate{
			SourceIdentityID: "id-1",
			TargetProfileID:  "profile-1",
			ConfidenceScore:  0.8,
		})
		require.NoError(t, err)
		return f
	}

	t.Run("approve links the source identity", func(t *testing.T) {
		f := newReviewFixture(t)

		candidate, err := f.service.ApproveCandidate(context.Background(), "candidate-new", "sam")
		require.NoError(t, err)
		assert.Equal(t, models.MatchCandidateStatusApproved, candidate.Status)
		require.Len(t, f.identities.links, 1)
		assert.Equal(t, identityLink{"id-1", "profile-1", 0.8, true}, f.identities.links[0])
		assert.Equal(t, "sam", f.candidates.reviewedBy["candidate-new"])
	})

	t.Run("reviewer defaults to admin", func(t *testing.T) {
		f := newReviewFixture(t)

		_, err := f.service.ApproveCandidate(context.Background(), "candidate-new", "")
		require.NoError(t, err)
		assert.Equal(t, "admin", f.candidates.reviewedBy["candidate-new"])
	})

	t.Run("reject leaves the identity unlinked", func(t *testing.T) {
		f := newReviewFixture(t)

		candidate, err := f.service.RejectCandidate(context.Background(), "candidate-new", "sam")
		require.NoError(t, err)
		assert.Equal(t, models.MatchCandidateStatusRejected, candidate.Status)
		assert.Empty(t, f.identities.links)
	})

	t.Run("resolved candidates cannot be reviewed again", func(t *testing.T) {
		f := newReviewFixture(t)

		_, err := f.service.ApproveCandidate(context.Background(), "candidate-new", "sam")
		require.NoError(t, err)

		_, err = f.service.RejectCandidate(context.Background(), "candidate-new", "sam")
		require.Error(t, err)
		assert.Equal(t, http.StatusConflict, httperror.GetStatusCode(err))
	})
}

func TestStats(t *testing.T) {
	identities := &fakeIdentities{}
	f := newFixture(identities)
	f.candidates.pending = 3

	_, err := f.profiles.Create(context.Background(), "Sara Johnson")
	require.NoError(t, err)
	_, err = identities.Create(context.Background(), &models.PlatformIdentity{Platform: models.PlatformEmail, Identifier: "sara.j@xyz.com"})
	require.NoError(t, err)

	stats, err := f.service.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, stats.TotalProfiles)
	assert.Equal(t, 1, stats.TotalIdentities)
	assert.Equal(t, 3, stats.PendingReviews)
}
