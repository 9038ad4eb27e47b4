package extract

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProbe(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input []byte
		want  Classification
	}{
		{"empty", nil, ClassText},
		{"ascii prose", []byte("Meeting notes\n\tAgenda: budget review, hiring plan.\r\n"), ClassText},
		{"chinese prose", []byte("季度报告显示，各地区收入均有增长。"), ClassText},
		{"japanese and korean", []byte("これは文書です。 이것은 문서입니다."), ClassText},
		{"accented latin", []byte("Résumé of the café meeting in Zürich"), ClassText},
		{"control bytes", bytes.Repeat([]byte{0x01, 0x02, 0x03, 'a'}, 100), ClassBinary},
		{"invalid utf8", bytes.Repeat([]byte{0xff, 0xfe, 0x80, 'a'}, 100), ClassBinary},
		{"encrypted marker", []byte("This archive is ENCRYPTED."), ClassEncrypted},
		{"password marker", []byte("Enter the password to open this file"), ClassEncrypted},
		{"protected marker", []byte("Protected View"), ClassEncrypted},
		{"marker inside binary", append(bytes.Repeat([]byte{0x00}, 200), []byte("encrypted")...), ClassEncrypted},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Probe(tc.input))
		})
	}
}

func TestProbe_OnlyInspectsWindow(t *testing.T) {
	t.Parallel()

	b := []byte(strings.Repeat("a", ProbeWindow))
	b = append(b, bytes.Repeat([]byte{0x00}, 4096)...)
	b = append(b, []byte("password")...)

	assert.Equal(t, ClassText, Probe(b))
}

func TestProbe_ThresholdBoundary(t *testing.T) {
	t.Parallel()

	// 30 of 100 characters are control bytes: exactly at the threshold
	at := append(bytes.Repeat([]byte{0x01}, 30), bytes.Repeat([]byte{'a'}, 70)...)
	assert.Equal(t, ClassText, Probe(at))

	above := append(bytes.Repeat([]byte{0x01}, 31), bytes.Repeat([]byte{'a'}, 69)...)
	assert.Equal(t, ClassBinary, Probe(above))
}

func TestNonTextRatio_IgnoresCutRune(t *testing.T) {
	t.Parallel()

	s := []byte("报告")
	// drop the last byte of the second character
	assert.Zero(t, nonTextRatio(s[:len(s)-1]))
}

func TestApology(t *testing.T) {
	t.Parallel()

	assert.Contains(t, Apology(CauseEncrypted, "docx"), "encrypted")
	assert.Contains(t, Apology(CauseUnsupported, "dwg"), `"dwg"`)
	assert.Contains(t, Apology(CauseUnsupported, ""), `"unknown"`)
	assert.Contains(t, Apology(CauseNetwork, ""), "network")
	assert.Equal(t, Apology(CauseCorrupted, ""), Apology(Cause("other"), ""))
}
