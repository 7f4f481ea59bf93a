package matching

import (
	"context"
	"errors"

	"github.com/Ramsey-B/aster/pkg/models"
)

// fakeStore serves canned identities and counts calls.
type fakeStore struct {
	identities map[string]*models.CandidateIdentity // key platform|identifier
	pool       []models.CandidateIdentity

	getCalls  int
	listCalls int
	failGet   bool
	failList  bool
}

func (f *fakeStore) GetByPlatformIdentifier(ctx context.Context, platform models.Platform, identifier string) (*models.CandidateIdentity, error) {
	f.getCalls++
	if f.failGet {
		return nil, errors.New("store unavailable")
	}
	return f.identities[string(platform)+"|"+identifier], nil
}

func (f *fakeStore) ListCandidates(ctx context.Context) ([]models.CandidateIdentity, error) {
	f.listCalls++
	if f.failList {
		return nil, errors.New("store unavailable")
	}
	return f.pool, nil
}

func identityFixture(id, profileID, profileName string, platform models.Platform, identifier, displayName string) *models.CandidateIdentity {
	out := &models.CandidateIdentity{}
	out.ID = id
	out.Platform = platform
	out.Identifier = identifier
	if profileID != "" {
		pid := profileID
		out.ProfileID = &pid
	}
	if profileName != "" {
		pn := profileName
		out.ProfileName = &pn
	}
	if displayName != "" {
		dn := displayName
		out.DisplayName = &dn
	}
	return out
}
