package document

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func Test_ParsePages(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  []int
	}{
		{name: "single", input: "3", want: []int{2}},
		{name: "range", input: "1-3", want: []int{0, 1, 2}},
		{name: "mixed", input: "1-3,5", want: []int{0, 1, 2, 4}},
		{name: "spaces", input: " 2 - 3 , 10 ", want: []int{1, 2, 9}},
		{name: "overlapping", input: "4-6,5,1", want: []int{0, 3, 4, 5}},
		{name: "single page range", input: "7-7", want: []int{6}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := ParsePages(tt.input, 10)
			require.NoError(t, err)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("pages mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func Test_ParsePages_Rejects_Bad_Input(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		err   error
	}{
		{input: "", err: ErrInvalidSelection},
		{input: "   ", err: ErrInvalidSelection},
		{input: "a", err: ErrInvalidSelection},
		{input: "1,,2", err: ErrInvalidSelection},
		{input: "1-", err: ErrInvalidSelection},
		{input: "-3", err: ErrInvalidSelection},
		{input: "1-2-3", err: ErrInvalidSelection},
		{input: "5-2", err: ErrInvalidSelection},
		{input: "0", err: ErrPageOutOfRange},
		{input: "11", err: ErrPageOutOfRange},
		{input: "8-12", err: ErrPageOutOfRange},
		{input: "1,11", err: ErrPageOutOfRange},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()

			got, err := ParsePages(tt.input, 10)
			require.ErrorIs(t, err, tt.err)
			require.Nil(t, got)
		})
	}
}
