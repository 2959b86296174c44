package kv_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gavet/crmdialer/internal/utils/kv"
)

func TestParseSpecs(t *testing.T) {
	tests := map[string]struct {
		specs  []string
		valid  kv.KeyValidator
		expKV  map[string]string
		expErr bool
	}{
		"KEY=VALUE should parse": {
			specs: []string{"123456=11999990001"},
			expKV: map[string]string{"123456": "11999990001"},
		},
		"Keys and values should be trimmed": {
			specs: []string{" 123456 = 11999990001 "},
			expKV: map[string]string{"123456": "11999990001"},
		},
		"Empty values should be kept": {
			specs: []string{"123456="},
			expKV: map[string]string{"123456": ""},
		},
		"Later entries should override earlier ones": {
			specs: []string{"123456=one", "123456=two"},
			expKV: map[string]string{"123456": "two"},
		},
		"A spec without value should fail": {
			specs:  []string{"123456"},
			expErr: true,
		},
		"An empty spec should fail": {
			specs:  []string{" "},
			expErr: true,
		},
		"An empty key should fail": {
			specs:  []string{"=11999990001"},
			expErr: true,
		},
		"A rejected key should fail": {
			specs:  []string{"12a456=11999990001"},
			valid:  kv.Digits,
			expErr: true,
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			got, err := kv.ParseSpecs(tc.specs, tc.valid)

			if tc.expErr {
				require.Error(t, err)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tc.expKV, got)
		})
	}
}

func TestDigits(t *testing.T) {
	assert.True(t, kv.Digits("0123456789"))
	assert.False(t, kv.Digits(""))
	assert.False(t, kv.Digits("12.345"))
}
