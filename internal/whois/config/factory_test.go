package config

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/suite"

	"structwhois/internal/whois/fields"
	dErrors "structwhois/pkg/domain-errors"
)

type FactorySuite struct {
	suite.Suite
	factory *Factory
}

func TestFactorySuite(t *testing.T) {
	suite.Run(t, new(FactorySuite))
}

func (s *FactorySuite) SetupTest() {
	s.factory = New()
}

func (s *FactorySuite) TestResolve() {
	s.Run("unknown tld falls back to base definitions", func() {
		resolved := s.factory.Resolve("dev")
		s.Equal(s.factory.BaseFields(), resolved)
	})

	s.Run("empty tld is the default configuration", func() {
		s.Equal(s.factory.BaseFields(), s.factory.Resolve(""))
	})

	s.Run("tld extension appends patterns after the base", func() {
		base, ok := s.factory.BaseField("expiration_date")
		s.Require().True(ok)
		resolved := s.factory.Resolve("ru")
		spec := resolved["expiration_date"]
		s.Len(spec.Patterns, len(base.Patterns)+1)
		s.Equal(base.Patterns, spec.Patterns[:len(base.Patterns)])
	})

	s.Run("tld labels normalize before lookup", func() {
		s.Equal(s.factory.Resolve("uk"), s.factory.Resolve(".UK "))
	})

	s.Run("resolved set is a fresh copy every call", func() {
		first := s.factory.Resolve("jp")
		first["domain_name"].Patterns[0] = fields.Prefix("tampered:")
		second := s.factory.Resolve("jp")
		s.NotEqual(fields.Prefix("tampered:"), second["domain_name"].Patterns[0])
	})

	s.Run("override for a field the base never defined creates it", func() {
		err := s.factory.RegisterTLD("test", fields.Overrides{
			"billing_email": {ExtendPatterns: []fields.Pattern{fields.Prefix("Billing Email:")}},
		}, false)
		s.Require().NoError(err)
		spec, ok := s.factory.Resolve("test")["billing_email"]
		s.Require().True(ok)
		s.Equal(fields.ModeFirst, spec.Mode)
		s.Equal(fields.ShapeScalar, spec.Shape)
	})
}

func (s *FactorySuite) TestRegisterTLD() {
	s.Run("rejects malformed tld labels", func() {
		for _, tld := range []string{"", "-bad", "bad-", "UP PER", "a..b"} {
			err := s.factory.RegisterTLD(tld, fields.Overrides{}, false)
			s.Require().Error(err, "tld %q", tld)
			s.True(errors.Is(err, ErrInvalidTLD))
			s.Equal(dErrors.CodeBadRequest, dErrors.GetCode(err))
		}
	})

	s.Run("additive registration demotes replacements to extensions", func() {
		s.Require().NoError(s.factory.RegisterTLD("test", fields.Overrides{
			"registrar": {Patterns: []fields.Pattern{fields.Prefix("First:")}},
		}, false))
		s.Require().NoError(s.factory.RegisterTLD("test", fields.Overrides{
			"registrar": {Patterns: []fields.Pattern{fields.Prefix("Second:")}},
		}, false))

		spec := s.factory.Resolve("test")["registrar"]
		n := len(spec.Patterns)
		s.Require().GreaterOrEqual(n, 2)
		// First registration replaced the base; second appended after it.
		s.Equal(fields.Prefix("First:"), spec.Patterns[0])
		s.Equal(fields.Prefix("Second:"), spec.Patterns[n-1])
	})

	s.Run("replace registration discards the prior override", func() {
		s.Require().NoError(s.factory.RegisterTLD("test", fields.Overrides{
			"registrar": {Patterns: []fields.Pattern{fields.Prefix("First:")}},
		}, false))
		s.Require().NoError(s.factory.RegisterTLD("test", fields.Overrides{
			"registrar": {Patterns: []fields.Pattern{fields.Prefix("Second:")}},
		}, true))

		spec := s.factory.Resolve("test")["registrar"]
		s.Equal([]fields.Pattern{fields.Prefix("Second:")}, spec.Patterns)
	})

	s.Run("contradicting mode fails instead of picking one", func() {
		first := fields.ModeFirst
		all := fields.ModeAll
		s.Require().NoError(s.factory.RegisterTLD("test", fields.Overrides{
			"status": {Mode: &all},
		}, false))
		err := s.factory.RegisterTLD("test", fields.Overrides{
			"status": {Mode: &first},
		}, false)
		s.Require().Error(err)
		s.True(errors.Is(err, ErrConfigConflict))
		s.Equal(dErrors.CodeConflict, dErrors.GetCode(err))
	})

	s.Run("contradicting shape fails", func() {
		scalar := fields.ShapeScalar
		listShape := fields.ShapeList
		s.Require().NoError(s.factory.RegisterTLD("test", fields.Overrides{
			"status": {Shape: &listShape},
		}, false))
		err := s.factory.RegisterTLD("test", fields.Overrides{
			"status": {Shape: &scalar},
		}, false)
		s.True(errors.Is(err, ErrConfigConflict))
	})

	s.Run("re-stating the same policy is not a conflict", func() {
		all := fields.ModeAll
		s.Require().NoError(s.factory.RegisterTLD("test", fields.Overrides{
			"status": {Mode: &all},
		}, false))
		s.NoError(s.factory.RegisterTLD("test", fields.Overrides{
			"status": {Mode: &all},
		}, false))
	})
}

func (s *FactorySuite) TestVersion() {
	s.Run("mutations bump the version", func() {
		before := s.factory.Version()
		s.Require().NoError(s.factory.RegisterTLD("test", fields.Overrides{
			"status": {ExtendPatterns: []fields.Pattern{fields.Prefix("X:")}},
		}, false))
		s.Greater(s.factory.Version(), before)
	})

	s.Run("reads do not bump the version", func() {
		before := s.factory.Version()
		_ = s.factory.Resolve("uk")
		_ = s.factory.KnownTLDs()
		_ = s.factory.BaseFields()
		s.Equal(before, s.factory.Version())
	})

	s.Run("removing an unknown tld is a no-op", func() {
		before := s.factory.Version()
		s.factory.RemoveTLD("nonexistent")
		s.Equal(before, s.factory.Version())
	})

	s.Run("removing a known tld bumps and falls back to base", func() {
		before := s.factory.Version()
		s.factory.RemoveTLD("uk")
		s.Greater(s.factory.Version(), before)
		s.Equal(s.factory.BaseFields(), s.factory.Resolve("uk"))
	})
}

func (s *FactorySuite) TestBaseFieldMutation() {
	s.Run("extend base field appends for every tld", func() {
		pattern := fields.Regex(`(?i)^expiry:\s*(.+?)\s*$`)
		s.Require().NoError(s.factory.ExtendBaseField("expiration_date", []fields.Pattern{pattern}))

		defaultSpec := s.factory.Resolve("")["expiration_date"]
		s.Equal(pattern, defaultSpec.Patterns[len(defaultSpec.Patterns)-1])

		jpSpec := s.factory.Resolve("jp")["expiration_date"]
		s.Contains(jpSpec.Patterns, pattern)
	})

	s.Run("extend unknown base field errors", func() {
		err := s.factory.ExtendBaseField("no_such_field", []fields.Pattern{fields.Prefix("X:")})
		s.Require().Error(err)
		s.True(errors.Is(err, ErrUnknownField))
		s.Equal(dErrors.CodeNotFound, dErrors.GetCode(err))
	})

	s.Run("register base field creates or replaces", func() {
		spec := fields.FieldSpec{
			Patterns: []fields.Pattern{fields.Prefix("Billing Email:")},
			Mode:     fields.ModeFirst,
			Shape:    fields.ShapeScalar,
		}
		s.factory.RegisterBaseField("billing_email", spec)
		got, ok := s.factory.BaseField("billing_email")
		s.Require().True(ok)
		s.Equal(spec, got)
	})
}

func (s *FactorySuite) TestKnownTLDs() {
	tlds := s.factory.KnownTLDs()
	s.Equal(DefaultTLDs(), tlds)
}
