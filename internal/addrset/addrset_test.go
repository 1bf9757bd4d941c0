package addrset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	btcP2PKH  = "1A1zP1eP5QGefi2DMPTfTL5SLmv7DivfNa"
	btcP2SH   = "3J98t1WpEZ73CNmQviecrnyiWrnqRhWNLy"
	btcBech32 = "bc1qar0srrr7xfkvy5l643lydnw9re59gtzzwf5mdq"
	btcTest   = "mipcBbFg9gMiCh81Kj8tqqdgoZub1ZJRfn"
	ltcP2PKH  = "LVg2kJoFNg45Nbpy53h7Fe1wKyeXVRhMH9"
)

func TestNew(t *testing.T) {
	t.Run("unsupported chain", func(t *testing.T) {
		_, err := New("doge", "mainnet")
		assert.ErrorIs(t, err, ErrUnsupportedChain)
	})

	t.Run("unknown network", func(t *testing.T) {
		_, err := New("btc", "moonnet")
		assert.Error(t, err)
	})
}

func TestResolver_Parse(t *testing.T) {
	r, err := New("btc", "mainnet")
	require.NoError(t, err)

	tests := []struct {
		name    string
		raw     string
		want    []Address
		wantErr string
	}{
		{
			name: "empty input is not an error",
			raw:  "",
			want: []Address{},
		},
		{
			name: "single address",
			raw:  btcP2PKH,
			want: []Address{btcP2PKH},
		},
		{
			name: "several addresses keep their order",
			raw:  btcP2SH + "," + btcP2PKH + " , " + btcBech32,
			want: []Address{btcP2SH, btcP2PKH, btcBech32},
		},
		{
			name: "bech32 is canonicalised to lower case",
			raw:  "BC1QAR0SRRR7XFKVY5L643LYDNW9RE59GTZZWF5MDQ",
			want: []Address{btcBech32},
		},
		{
			name:    "first malformed entry fails the list",
			raw:     btcP2PKH + ",notanaddress," + btcP2SH,
			wantErr: "notanaddress",
		},
		{
			name:    "address of another network",
			raw:     btcTest,
			wantErr: btcTest,
		},
		{
			name:    "trailing comma",
			raw:     btcP2PKH + ",",
			wantErr: "empty address",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.Parse(tt.raw)

			if tt.wantErr != "" {
				var ia *InvalidAddressError
				require.ErrorAs(t, err, &ia)
				assert.Contains(t, err.Error(), tt.wantErr)
				assert.Nil(t, got)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolver_Litecoin(t *testing.T) {
	r, err := New("ltc", "")
	require.NoError(t, err)
	assert.Equal(t, "ltc", r.Chain())

	got, err := r.ParseOne(ltcP2PKH)
	require.NoError(t, err)
	assert.Equal(t, Address(ltcP2PKH), got)

	_, err = r.ParseOne(btcP2PKH)
	assert.Error(t, err)
}

func TestStrings(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, Strings([]Address{"a", "b"}))
}
