package normalize

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/suite"

	dErrors "structwhois/pkg/domain-errors"
)

type NormalizeSuite struct {
	suite.Suite
}

func TestNormalizeSuite(t *testing.T) {
	suite.Run(t, new(NormalizeSuite))
}

func (s *NormalizeSuite) TestLatestBlock() {
	s.Run("payload without markers passes through", func() {
		got, err := LatestBlock("foo: 1\nbar: 2\n")
		s.Require().NoError(err)
		s.Equal("foo: 1\nbar: 2\n", got)
	})

	s.Run("keeps only the text after the last marker", func() {
		raw := "foo: 1\n# whois.iana.org\nbar: 2\n"
		got, err := LatestBlock(raw)
		s.Require().NoError(err)
		s.Equal("bar: 2\n", got)
	})

	s.Run("chained referrals keep the final response", func() {
		raw := "foo: 1\n# whois.verisign-grs.com\nfoo: 2\n# whois.registrar.example\nfoo: 3\n"
		got, err := LatestBlock(raw)
		s.Require().NoError(err)
		s.Equal("foo: 3\n", got)
	})

	s.Run("leading marker banner is not a separator", func() {
		raw := "# example.com\nDomain Name: example.com\nRegistrar: Example Inc.\n"
		got, err := LatestBlock(raw)
		s.Require().NoError(err)
		s.Equal(raw, got)
	})

	s.Run("applying twice changes nothing", func() {
		for name, raw := range map[string]string{
			"no markers":        "foo: 1\nbar: 2\n",
			"single referral":   "foo: 1\n# whois.iana.org\nbar: 2\n",
			"chained referrals": "foo: 1\n# whois.verisign-grs.com\nfoo: 2\n# whois.registrar.example\nfoo: 3\n",
			"leading banner":    "# example.com\nDomain Name: example.com\n",
		} {
			once, err := LatestBlock(raw)
			s.Require().NoError(err, name)
			twice, err := LatestBlock(once)
			s.Require().NoError(err, name)
			s.Equal(once, twice, name)
		}
	})

	s.Run("marker with nothing after it is an empty record", func() {
		_, err := LatestBlock("foo: 1\n# whois.example\n\n")
		s.Require().Error(err)
		s.True(errors.Is(err, ErrEmptyRecord))
		s.Equal(dErrors.CodeUnprocessable, dErrors.GetCode(err))
	})
}

func (s *NormalizeSuite) TestNormalize() {
	s.Run("empty payload normalizes to empty", func() {
		got, err := Normalize("   \n\n")
		s.Require().NoError(err)
		s.Equal("", got)
	})

	s.Run("carriage returns are stripped", func() {
		got, err := Normalize("Domain Name: example.com\r\nRegistrar: Example Inc.\r\n")
		s.Require().NoError(err)
		s.Equal("Domain Name: example.com\nRegistrar: Example Inc.\n", got)
	})

	s.Run("non-empty output always ends in a newline", func() {
		got, err := Normalize("Domain Name: example.com")
		s.Require().NoError(err)
		s.Equal("Domain Name: example.com\n", got)
	})

	s.Run("wrapped header values collapse onto one line", func() {
		raw := "Registrar:\n    Example Registrar Ltd\n"
		got, err := Normalize(raw)
		s.Require().NoError(err)
		s.Equal("Registrar: Example Registrar Ltd\n", got)
	})

	s.Run("section header followed by another header stays split", func() {
		raw := "Name servers:\nRegistrar:\n"
		got, err := Normalize(raw)
		s.Require().NoError(err)
		s.Equal("Name servers:\nRegistrar:\n", got)
	})

	s.Run("multi-match listings keep the final full record", func() {
		raw := "Domain Name: example.com\nDomain Name: example.com\nRegistrar: Example Inc.\n"
		got, err := Normalize(raw)
		s.Require().NoError(err)
		s.Equal("Domain Name: example.com\nRegistrar: Example Inc.\n", got)
	})

	s.Run("summary lines before the last domain record are dropped", func() {
		raw := "Aborting search 50 records found\n" +
			"Domain Name: example.com\n" +
			"Domain Name: example.net\n" +
			"Registrar: Example Inc.\n" +
			"Creation Date: 2001-01-01\n"
		got, err := Normalize(raw)
		s.Require().NoError(err)
		s.Equal("Domain Name: example.net\nRegistrar: Example Inc.\nCreation Date: 2001-01-01\n", got)
	})
}

func (s *NormalizeSuite) TestAFNICContacts() {
	raw := "domain: example.fr\n" +
		"holder-c: ACME1-FRNIC\n" +
		"admin-c: JD123-FRNIC\n" +
		"tech-c: JD123-FRNIC\n" +
		"\n" +
		"nic-hdl: ACME1-FRNIC\n" +
		"type: ORGANIZATION\n" +
		"contact: ACME SAS\n" +
		"e-mail: hostmaster@acme.example\n" +
		"\n" +
		"nic-hdl: JD123-FRNIC\n" +
		"type: PERSON\n" +
		"contact: Jean Dupont\n" +
		"phone: +33 1 23 45 67 89\n"

	s.Run("handle blocks inject flat contact lines", func() {
		got, err := Normalize(raw)
		s.Require().NoError(err)
		s.Contains(got, "Registrant Organization: ACME SAS\n")
		s.Contains(got, "Registrant Email: hostmaster@acme.example\n")
		s.Contains(got, "Admin Name: Jean Dupont\n")
		s.Contains(got, "Admin Phone: +33 1 23 45 67 89\n")
		s.Contains(got, "Tech Name: Jean Dupont\n")
	})

	s.Run("payloads without handles stay untouched", func() {
		got, err := Normalize("domain: example.fr\nstatus: ACTIVE\n")
		s.Require().NoError(err)
		s.Equal("domain: example.fr\nstatus: ACTIVE\n", got)
	})
}

func (s *NormalizeSuite) TestIsRateLimited() {
	s.Run("known banners are detected", func() {
		s.True(IsRateLimited("WHOIS LIMIT EXCEEDED - SEE WWW.PIR.ORG/WHOIS FOR DETAILS"))
		s.True(IsRateLimited("  Your connection limit exceeded.\n"))
	})

	s.Run("ordinary records are not", func() {
		s.False(IsRateLimited("Domain Name: example.com\n"))
		s.False(IsRateLimited(""))
	})
}
