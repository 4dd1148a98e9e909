package postgres

import (
	"context"
	"testing"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NordCoder/Vidtube/internal/domain/user"
)

func TestRefreshTokenRepo_Swap(t *testing.T) {
	tests := []struct {
		name     string
		affected int64
		wantErr  error
	}{
		{name: "current token rotated", affected: 1},
		{name: "already rotated", affected: 0, wantErr: user.ErrRefreshMismatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock, db := newMockDB(t)
			mock.ExpectExec(`WHERE id = \$1 AND refresh_token = \$2`).
				WithArgs(aliceID, "r1", "r2").
				WillReturnResult(pgxmock.NewResult("UPDATE", tt.affected))

			err := NewRefreshTokenRepo(db).SwapRefreshToken(context.Background(), aliceID, "r1", "r2")
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestRefreshTokenRepo_Set(t *testing.T) {
	mock, db := newMockDB(t)
	mock.ExpectExec(`SET refresh_token = \$2`).
		WithArgs(aliceID, pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec(`SET refresh_token = \$2`).
		WithArgs(aliceID, pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	repo := NewRefreshTokenRepo(db)
	require.NoError(t, repo.SetRefreshToken(context.Background(), aliceID, nil))
	require.ErrorIs(t, repo.SetRefreshToken(context.Background(), aliceID, strPtr("r1")), user.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRefreshTokenRepo_JoinsTransaction(t *testing.T) {
	mock, db := newMockDB(t)
	mock.ExpectBegin()
	mock.ExpectExec(`WHERE id = \$1 AND refresh_token = \$2`).
		WithArgs(aliceID, "r1", "r2").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	mock.ExpectRollback()

	tx := NewTransactor(db, nil)
	err := tx.WithTx(context.Background(), func(ctx context.Context) error {
		return NewRefreshTokenRepo(db).SwapRefreshToken(ctx, aliceID, "r1", "r2")
	})
	require.ErrorIs(t, err, user.ErrRefreshMismatch)
	assert.NoError(t, mock.ExpectationsWereMet())
}
