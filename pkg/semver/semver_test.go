package semver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	v, err := Parse("v1.2.3-rc.1+build.5")
	require.NoError(t, err)
	assert.Equal(t, &Version{Major: 1, Minor: 2, Patch: 3, Prerelease: "rc.1", Build: "build.5"}, v)
	assert.Equal(t, "1.2.3-rc.1+build.5", v.String())

	_, err = Parse("1.2")
	assert.Error(t, err)
}

func TestVersion_Compare(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"1.0.0", "1.0.0", 0},
		{"1.0.0", "2.0.0", -1},
		{"0.21.2", "0.18.1", 1},
		{"1.0.0-alpha", "1.0.0", -1},
		{"1.0.0-beta", "1.0.0-alpha", 1},
	}

	for _, tt := range tests {
		t.Run(tt.a+"_"+tt.b, func(t *testing.T) {
			a, err := Parse(tt.a)
			require.NoError(t, err)
			b, err := Parse(tt.b)
			require.NoError(t, err)

			assert.Equal(t, tt.want, a.Compare(b))
		})
	}
}

func TestParseSubversion(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "/Satoshi:25.1.0/", want: "25.1.0"},
		{in: "/Satoshi:27.0/", want: "27.0.0"},
		{in: "/LitecoinCore:0.21.2.2/", want: "0.21.2"},
		{in: "/Satoshi:0.21.0(custom)/", want: "0.21.0"},
		{in: "/Satoshi:26.0.0/Knots:20240101/", want: "26.0.0"},
		{in: "garbage", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			v, err := ParseSubversion(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, v.String())
		})
	}
}
