package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahrav/go-instructgen/internal/llm/transport"
)

func TestPreviewKeepsRuneBoundaries(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{name: "short", content: "hello", want: "hello"},
		{name: "exact", content: strings.Repeat("a", previewLength), want: strings.Repeat("a", previewLength)},
		{name: "ascii", content: strings.Repeat("a", previewLength+5), want: strings.Repeat("a", previewLength) + "..."},
		// 199 ASCII bytes followed by a 3-byte rune straddling the limit.
		{
			name:    "multibyte straddles limit",
			content: strings.Repeat("a", previewLength-1) + "語" + "tail",
			want:    strings.Repeat("a", previewLength-1) + "...",
		},
		{
			name:    "all multibyte",
			content: strings.Repeat("日本", 100),
			want:    strings.Repeat("日本", 33) + "...",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := preview(tt.content)
			assert.Equal(t, tt.want, got)
			assert.True(t, utf8.ValidString(got))
			assert.LessOrEqual(t, len(strings.TrimSuffix(got, "...")), previewLength)
		})
	}
}

func TestLoggingMiddlewareLogsValidPreview(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	content := strings.Repeat("é", 150)
	core := transport.HandlerFunc(func(context.Context, *transport.Request) (*transport.Response, error) {
		return &transport.Response{Content: content, Attempts: 1}, nil
	})
	h := NewLoggingMiddleware(logger, nil)(core)

	resp, err := h.Handle(context.Background(), &transport.Request{Provider: "ollama", RequestID: "req-1", Prompt: "p"})
	require.NoError(t, err)
	assert.Equal(t, content, resp.Content)

	var found bool
	for _, line := range bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n")) {
		var rec map[string]any
		require.NoError(t, json.Unmarshal(line, &rec))
		if rec["msg"] != "generation completed" {
			continue
		}
		found = true
		got, ok := rec["response_preview"].(string)
		require.True(t, ok)
		assert.Equal(t, strings.Repeat("é", 100)+"...", got)
		assert.NotContains(t, got, string(utf8.RuneError))
	}
	assert.True(t, found)
}
