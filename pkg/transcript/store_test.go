package transcript

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStore_Save(t *testing.T) {
	s, err := NewStore(filepath.Join(t.TempDir(), "transcripts"))
	require.NoError(t, err)

	names := make([]string, 0, 3)
	for i := 0; i < 3; i++ {
		name, err := s.Save("20240101-alice", []byte{byte(i)})
		require.NoError(t, err)
		names = append(names, name)
	}
	require.Equal(t, []string{"20240101-alice.html", "20240101-alice-1.html", "20240101-alice-2.html"}, names)

	for i, name := range names {
		got, err := os.ReadFile(filepath.Join(s.Dir(), name))
		require.NoError(t, err)
		require.Equal(t, []byte{byte(i)}, got, "file %s was overwritten", name)
	}
}

func TestSanitize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "plain", in: "ticket-bob", want: "ticket-bob"},
		{name: "separators", in: "../etc/passwd", want: "-etc-passwd"},
		{name: "empty", in: "", want: "transcript"},
		{name: "dots", in: "..", want: "transcript"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, sanitize(tt.in))
		})
	}
}
