package contact

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BTreeMap/FlowState/internal/models"
)

func TestExtract(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  models.GuestInfo
	}{
		{
			name:  "well formed line",
			input: "Nguyễn Văn A, 0901234567, 123 Nguyễn Huệ, Q1, HCM",
			want:  models.GuestInfo{Name: "Nguyễn Văn A", Phone: "0901234567", Address: "123 Nguyễn Huệ, Q1, HCM"},
		},
		{
			name:  "phone first leaves name absent",
			input: "0918180969, Trần Thị B, 45 Lê Lợi",
			want:  models.GuestInfo{Phone: "0918180969", Address: "Trần Thị B, 45 Lê Lợi"},
		},
		{
			name:  "single segment",
			input: "just one token",
			want:  models.GuestInfo{},
		},
		{
			name:  "empty input",
			input: "   ",
			want:  models.GuestInfo{},
		},
		{
			name:  "brackets stripped",
			input: "[Lê Văn C, 0912345678, 12 Trần Phú, Hà Nội]",
			want:  models.GuestInfo{Name: "Lê Văn C", Phone: "0912345678", Address: "12 Trần Phú, Hà Nội"},
		},
		{
			name:  "quotes stripped",
			input: `"Trần B, 0987654321, Đà Nẵng"`,
			want:  models.GuestInfo{Name: "Trần B", Phone: "0987654321", Address: "Đà Nẵng"},
		},
		{
			name:  "international prefix normalized",
			input: "Phạm D, +84 912345678, 5 Lý Thường Kiệt",
			want:  models.GuestInfo{Name: "Phạm D", Phone: "0912345678", Address: "5 Lý Thường Kiệt"},
		},
		{
			name:  "formatted phone digits",
			input: "Hoàng E, 0901.234.567, Cần Thơ",
			want:  models.GuestInfo{Name: "Hoàng E", Phone: "0901234567", Address: "Cần Thơ"},
		},
		{
			name:  "eleven digit number",
			input: "Võ F, 01234567890, Huế",
			want:  models.GuestInfo{Name: "Võ F", Phone: "01234567890", Address: "Huế"},
		},
		{
			name:  "noisy phone segment found by loose pattern",
			input: "Chị Hoa, 090-123-4567 (giờ hành chính 8-17), 9 Pasteur, Q3",
			want:  models.GuestInfo{Name: "Chị Hoa", Phone: "0901234567", Address: "9 Pasteur, Q3"},
		},
		{
			name:  "name spanning segments before phone",
			input: "Công ty ABC, anh Bình, 0909090909, KCN Tân Bình",
			want:  models.GuestInfo{Name: "Công ty ABC anh Bình", Phone: "0909090909", Address: "KCN Tân Bình"},
		},
		{
			name:  "no phone falls back to positions",
			input: "Nguyễn Văn A, 123 Lê Lợi, HCM",
			want:  models.GuestInfo{Name: "Nguyễn Văn A", Address: "123 Lê Lợi, HCM"},
		},
		{
			name:  "missing address",
			input: "Nguyễn Văn A, 0901234567",
			want:  models.GuestInfo{Name: "Nguyễn Văn A", Phone: "0901234567"},
		},
		{
			name:  "phone last leaves address absent",
			input: "Nguyễn Văn A, 12 Lê Lợi, 0901234567",
			want:  models.GuestInfo{Name: "Nguyễn Văn A 12 Lê Lợi", Phone: "0901234567"},
		},
		{
			name:  "too short number is not a phone",
			input: "Bà G, 090123, Vũng Tàu",
			want:  models.GuestInfo{Name: "Bà G", Address: "090123, Vũng Tàu"},
		},
		{
			name:  "empty segments ignored",
			input: "Anh H, , 0933333333,, Biên Hòa",
			want:  models.GuestInfo{Name: "Anh H", Phone: "0933333333", Address: "Biên Hòa"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Extract(tt.input))
		})
	}
}

func TestExtractIsDeterministic(t *testing.T) {
	in := "Nguyễn Văn A, 0901234567, 123 Nguyễn Huệ, Q1, HCM"
	first := Extract(in)
	for i := 0; i < 10; i++ {
		require.Equal(t, first, Extract(in))
	}
}

func TestClean(t *testing.T) {
	tests := map[string]string{
		"  a, b  ":   "a, b",
		"[a, b]":     "a, b",
		`"a, b"`:     "a, b",
		"'a, b'":     "a, b",
		`["a, b"]`:   "a, b",
		"a, b]":      "a, b",
		"":           "",
		"[]":         "",
		`  " x "  `:  "x",
		"[[a, b]]":   "[a, b]",
		"a, 'quoted": "a, 'quoted",
	}
	for in, want := range tests {
		assert.Equal(t, want, clean(in), "clean(%q)", in)
	}
}

func TestSplitSegments(t *testing.T) {
	assert.Equal(t, []string{"a", "b c", "d"}, splitSegments(" a ,b c,, d ,"))
	assert.Empty(t, splitSegments(" , ,"))
}

func TestMatchDigits(t *testing.T) {
	tests := []struct {
		in    string
		want  string
		match bool
	}{
		{"0901234567", "0901234567", true},
		{"0901 234 567", "0901234567", true},
		{"(090) 1234-5678", "09012345678", true},
		{"901234567", "", false},
		{"090123456789", "", false},
		{"84901234567", "", false},
		{"123 Nguyễn Huệ", "", false},
	}
	for _, tt := range tests {
		got, ok := matchDigits(tt.in)
		assert.Equal(t, tt.match, ok, "matchDigits(%q)", tt.in)
		assert.Equal(t, tt.want, got, "matchDigits(%q)", tt.in)
	}
}

func TestMatchPlus84(t *testing.T) {
	got, ok := matchPlus84("+84912345678")
	require.True(t, ok)
	assert.Equal(t, "0912345678", got)

	got, ok = matchPlus84("sđt +84-9123456789")
	require.True(t, ok)
	assert.Equal(t, "09123456789", got)

	_, ok = matchPlus84("84912345678")
	assert.False(t, ok)

	_, ok = matchPlus84("+84 91 234")
	assert.False(t, ok)
}

func TestMatchLoose(t *testing.T) {
	got, ok := matchLoose("gọi 090-123-4567 (sau 5h)")
	require.True(t, ok)
	assert.Equal(t, "0901234567", got)

	_, ok = matchLoose("lô 0-12")
	assert.False(t, ok)
}

func TestFindPhoneAnchor(t *testing.T) {
	phone, idx := findPhoneAnchor([]string{"A", "0901234567", "0912345678"})
	assert.Equal(t, "0901234567", phone)
	assert.Equal(t, 1, idx)

	// A strict match later in the line wins over a loose match earlier.
	phone, idx = findPhoneAnchor([]string{"090-123-4567 (ext 12)", "0912345678"})
	assert.Equal(t, "0912345678", phone)
	assert.Equal(t, 1, idx)

	phone, idx = findPhoneAnchor([]string{"A", "B"})
	assert.Empty(t, phone)
	assert.Equal(t, -1, idx)
}

func TestPositional(t *testing.T) {
	p := positional([]string{"A", "0901234567", "X", "Y"})
	assert.Equal(t, parse{name: "A", phone: "0901234567", address: "X, Y", anchor: 1}, p)

	p = positional([]string{"A", "X", "Y"})
	assert.Equal(t, parse{name: "A", address: "X, Y", anchor: -1}, p)

	p = positional([]string{"A", "0901234567"})
	assert.Equal(t, parse{name: "A", phone: "0901234567", anchor: 1}, p)
}

func TestReconcile(t *testing.T) {
	segments := []string{"A", "0901234567", "X"}

	// Fewer than three segments are left alone.
	p := reconcile([]string{"A", "B"}, parse{anchor: -1})
	assert.Equal(t, parse{anchor: -1}, p)

	// Missing pieces are filled positionally.
	p = reconcile(segments, parse{anchor: -1})
	assert.Equal(t, parse{name: "A", phone: "0901234567", address: "X", anchor: 1}, p)

	// Found values are never overridden.
	found := parse{name: "N", phone: "0999999999", address: "Z", anchor: 2}
	assert.Equal(t, found, reconcile(segments, found))

	// The anchor segment is not reused as the name.
	p = reconcile([]string{"0901234567", "B", "C"}, parse{phone: "0901234567", address: "B, C", anchor: 0})
	assert.Empty(t, p.name)
}
