package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"realtime-service/internal/identity"
)

type VerifierMock struct {
	mock.Mock
}

func (m *VerifierMock) Verify(ctx context.Context, credential string) (identity.Identity, error) {
	args := m.Called(ctx, credential)
	var id identity.Identity
	if val := args.Get(0); val != nil {
		id = val.(identity.Identity)
	}
	return id, args.Error(1)
}

var _ identity.Verifier = (*VerifierMock)(nil)
