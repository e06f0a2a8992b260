package handlers

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/benvon/cupid-code/internal/database"
	"github.com/benvon/cupid-code/internal/models"
	"github.com/google/uuid"
	"golang.org/x/oauth2"
)

type fakeCredentials struct {
	signInErr error
	signUpErr error
	token     *oauth2.Token
}

func (f *fakeCredentials) SignIn(context.Context, string, string) (*oauth2.Token, error) {
	if f.signInErr != nil {
		return nil, f.signInErr
	}
	return f.token, nil
}

func (f *fakeCredentials) SignUp(context.Context, string, string) (*oauth2.Token, error) {
	if f.signUpErr != nil {
		return nil, f.signUpErr
	}
	return f.token, nil
}

type fakeVerifier struct {
	claims *models.JWTClaims
	err    error
}

func (f *fakeVerifier) Verify(context.Context, string) (*models.JWTClaims, error) {
	return f.claims, f.err
}

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[string]*models.User
	err   error
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]*models.User)}
}

func (f *fakeUserRepo) GetByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, fmt.Errorf("user %w", database.ErrNotFound)
}

func (f *fakeUserRepo) GetByProviderID(_ context.Context, providerID string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.users[providerID]; ok {
		return u, nil
	}
	return nil, fmt.Errorf("user %w", database.ErrNotFound)
}

func (f *fakeUserRepo) UpsertFromClaims(_ context.Context, claims *models.JWTClaims) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	u, ok := f.users[claims.Sub]
	if !ok {
		sub := claims.Sub
		u = &models.User{ID: uuid.New(), ProviderID: &sub, CreatedAt: time.Now()}
		f.users[claims.Sub] = u
	}
	u.Email = claims.Email
	return u, nil
}

type fakePrefsRepo struct {
	mu     sync.Mutex
	prefs  map[uuid.UUID]bool
	sets   int
	getErr error
}

func newFakePrefsRepo() *fakePrefsRepo {
	return &fakePrefsRepo{prefs: make(map[uuid.UUID]bool)}
}

func (f *fakePrefsRepo) Get(_ context.Context, userID uuid.UUID) (*models.Preferences, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	return &models.Preferences{UserID: userID, KeepLoggedIn: f.prefs[userID]}, nil
}

func (f *fakePrefsRepo) SetKeepLoggedIn(_ context.Context, userID uuid.UUID, keep bool) (*models.Preferences, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sets++
	f.prefs[userID] = keep
	return &models.Preferences{UserID: userID, KeepLoggedIn: keep}, nil
}

func (f *fakePrefsRepo) keep(userID uuid.UUID) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.prefs[userID]
}

type fakeActivityRepo struct {
	activity *models.TaskActivity
	err      error
}

func (f *fakeActivityRepo) Increment(context.Context, uuid.UUID, database.ActivityCounter, time.Time) error {
	return errors.New("not used")
}

func (f *fakeActivityRepo) GetByUserID(_ context.Context, userID uuid.UUID) (*models.TaskActivity, error) {
	if f.err != nil {
		return nil, f.err
	}
	a := *f.activity
	a.UserID = userID
	return &a, nil
}
