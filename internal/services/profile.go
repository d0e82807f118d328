package services

import (
	"context"

	"expense-tracker-client/internal/models"
)

const profilePath = "/api/UserProfile"

// UserUpdater receives profiles fetched or saved by ProfileService.
type UserUpdater interface {
	UpdateUser(user *models.User) (*models.User, error)
}

// profileResponse decodes a profile without requiring an id. Some servers omit
// it on /api/UserProfile and the session supplies the signed-in user's id.
type profileResponse models.User

// ProfileService reads and updates the signed-in user's profile.
type ProfileService struct {
	client  Requester
	session UserUpdater
}

// NewProfileService creates a ProfileService. session may be nil.
func NewProfileService(client Requester, session UserUpdater) *ProfileService {
	return &ProfileService{client: client, session: session}
}

// Get fetches the profile and refreshes the session's copy.
func (s *ProfileService) Get(ctx context.Context) (*models.User, error) {
	var resp profileResponse
	if err := s.client.Get(ctx, profilePath, nil, &resp); err != nil {
		return nil, err
	}
	return s.remember(resp)
}

// Update saves profile changes and refreshes the session's copy.
func (s *ProfileService) Update(ctx context.Context, req models.UpdateProfileRequest) (*models.User, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	var resp profileResponse
	if err := s.client.Put(ctx, profilePath, req, &resp); err != nil {
		return nil, err
	}
	return s.remember(resp)
}

func (s *ProfileService) remember(resp profileResponse) (*models.User, error) {
	u := models.User(resp)
	if s.session != nil {
		return s.session.UpdateUser(&u)
	}
	if err := u.Validate(); err != nil {
		return nil, err
	}
	return &u, nil
}
