package storage

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalArchive(t *testing.T) {
	archive, err := NewLocalArchive(t.TempDir())
	require.NoError(t, err)

	ctx := context.Background()
	userID := uuid.New()

	stored, err := archive.Save(ctx, userID, "march.csv", strings.NewReader("Date,Description,Amount\n"))
	require.NoError(t, err)
	assert.Equal(t, "march.csv", stored.Name)
	assert.Equal(t, int64(24), stored.Size)

	t.Run("open returns the archived content", func(t *testing.T) {
		rc, info, err := archive.Open(ctx, userID, stored.ID)
		require.NoError(t, err)
		defer rc.Close()

		content, err := io.ReadAll(rc)
		require.NoError(t, err)
		assert.Equal(t, "Date,Description,Amount\n", string(content))
		assert.Equal(t, stored.ID, info.ID)
	})

	t.Run("list shows the user's uploads only", func(t *testing.T) {
		files, err := archive.List(ctx, userID)
		require.NoError(t, err)
		require.Len(t, files, 1)

		other, err := archive.List(ctx, uuid.New())
		require.NoError(t, err)
		assert.Empty(t, other)
	})

	t.Run("filenames with path characters are sanitized", func(t *testing.T) {
		evil, err := archive.Save(ctx, userID, "../../etc/passwd", strings.NewReader("x"))
		require.NoError(t, err)
		assert.NotContains(t, evil.Path, "..")
		assert.NotContains(t, evil.Path, "/")
	})

	t.Run("remove deletes file and metadata", func(t *testing.T) {
		require.NoError(t, archive.Remove(ctx, userID, stored.ID))

		_, _, err := archive.Open(ctx, userID, stored.ID)
		assert.Error(t, err)
	})

	t.Run("missing file is an error", func(t *testing.T) {
		_, _, err := archive.Open(ctx, userID, uuid.New())
		assert.Error(t, err)
	})
}
