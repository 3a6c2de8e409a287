package records

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
)

type DatesSuite struct {
	suite.Suite
}

func TestDatesSuite(t *testing.T) {
	suite.Run(t, new(DatesSuite))
}

func (s *DatesSuite) TestParseDateTime() {
	cases := []struct {
		name  string
		input string
		want  string // RFC3339 rendering of the expected instant
	}{
		{"rfc3339 zulu", "1997-09-15T04:00:00Z", "1997-09-15T04:00:00Z"},
		{"rfc3339 offset", "2015-03-25T04:00:00-07:00", "2015-03-25T04:00:00-07:00"},
		{"iso without zone", "2014-03-20 12:59:17", "2014-03-20T12:59:17Z"},
		{"iso date only", "2003-02-05", "2003-02-05T00:00:00Z"},
		{"slashed datetime", "2011/06/01 01:05:01", "2011-06-01T01:05:01Z"},
		{"slashed date", "2011/06/01", "2011-06-01T00:00:00Z"},
		{"compact date", "20030205", "2003-02-05T00:00:00Z"},
		{"dotted european", "05.02.2003", "2003-02-05T00:00:00Z"},
		{"korean dotted", "2016. 03. 10.", "2016-03-10T00:00:00Z"},
		{"dd-mon-yyyy", "27-Apr-2015", "2015-04-27T00:00:00Z"},
		{"dd-mon-yyyy with time", "02-Jan-2006 10:20:30", "2006-01-02T10:20:30Z"},
		{"ctime style", "Mon Jan 2 15:04:05 2006", "2006-01-02T15:04:05Z"},
		{"spelled out", "2 January 2006", "2006-01-02T00:00:00Z"},
		{"jst paren zone", "2014/03/20 12:59:17 (JST)", "2014-03-20T12:59:17+09:00"},
		{"kst paren zone", "2016. 03. 10. (KST)", "2016-03-10T00:00:00+09:00"},
		{"ordinal day", "11th Jun 2014", "2014-06-11T00:00:00Z"},
		{"extra whitespace", "2014-03-20   12:59:17", "2014-03-20T12:59:17Z"},
	}

	for _, tc := range cases {
		s.Run(tc.name, func() {
			got, err := ParseDateTime(tc.input)
			s.Require().NoError(err, "input %q", tc.input)
			want, err := time.Parse(time.RFC3339, tc.want)
			s.Require().NoError(err)
			s.True(got.Equal(want), "input %q: got %s, want %s", tc.input, got, want)
		})
	}
}

func (s *DatesSuite) TestParseDateTimeFailures() {
	for _, input := range []string{"", "   ", "before 2001", "not a date", "9999-99-99"} {
		s.Run("input "+input, func() {
			_, err := ParseDateTime(input)
			s.Require().Error(err, "input %q", input)
			s.True(errors.Is(err, ErrUnparsableDate))
		})
	}
}
