package settings_test

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"

	"podcastqa/apps/backend/internal/settings"
)

func TestPostgresRepo_Get(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := settings.NewPostgresRepo(db)

	t.Run("Success", func(t *testing.T) {
		rows := sqlmock.NewRows([]string{"id", "rerank_provider", "rerank_api_key", "gemini_api_key", "search_limit"}).
			AddRow(1, "cohere", "key1", "key2", 15)

		mock.ExpectQuery(regexp.QuoteMeta("SELECT id, rerank_provider, rerank_api_key, gemini_api_key, search_limit FROM settings WHERE id = 1")).
			WillReturnRows(rows)

		s, err := repo.Get(context.Background())
		assert.NoError(t, err)
		assert.NotNil(t, s)
		assert.Equal(t, "cohere", s.RerankProvider)
		assert.Equal(t, 15, s.SearchLimit)
	})

	t.Run("Error", func(t *testing.T) {
		mock.ExpectQuery(regexp.QuoteMeta("SELECT id")).
			WillReturnError(sqlmock.ErrCancelled)

		s, err := repo.Get(context.Background())
		assert.Error(t, err)
		assert.Nil(t, s)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepo_Update(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := settings.NewPostgresRepo(db)

	s := &settings.Settings{
		RerankProvider: "jina",
		RerankAPIKey:   "k1",
		GeminiAPIKey:   "k2",
		SearchLimit:    20,
	}

	mock.ExpectExec(regexp.QuoteMeta("UPDATE settings SET rerank_provider = $1, rerank_api_key = $2, gemini_api_key = $3, search_limit = $4, updated_at = NOW() WHERE id = 1")).
		WithArgs(s.RerankProvider, s.RerankAPIKey, s.GeminiAPIKey, s.SearchLimit).
		WillReturnResult(sqlmock.NewResult(1, 1))

	assert.NoError(t, repo.Update(context.Background(), s))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSettings_Validate(t *testing.T) {
	tests := []struct {
		name    string
		in      settings.Settings
		wantErr bool
	}{
		{"Empty Provider Defaults", settings.Settings{}, false},
		{"LLM Without Key", settings.Settings{RerankProvider: settings.RerankLLM}, false},
		{"Jina Without Key", settings.Settings{RerankProvider: settings.RerankJina}, true},
		{"Cohere With Key", settings.Settings{RerankProvider: settings.RerankCohere, RerankAPIKey: "k"}, false},
		{"Unknown Provider", settings.Settings{RerankProvider: "bing"}, true},
		{"Limit Too Large", settings.Settings{SearchLimit: settings.MaxSearchLimit + 1}, true},
		{"Negative Limit", settings.Settings{SearchLimit: -1}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.in.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, settings.ErrInvalidSettings)
				return
			}
			assert.NoError(t, err)
			assert.NotEmpty(t, tt.in.RerankProvider)
		})
	}
}

func TestMaskKey(t *testing.T) {
	tests := map[string]string{
		"":               "",
		"abcd":           "****",
		"sk-live-998877": "****8877",
	}
	for in, want := range tests {
		assert.Equal(t, want, settings.MaskKey(in), in)
	}
}
