package pairverify

import (
	"regexp"

	"github.com/cockroachdb/tablecmp/csvtable"
)

const DefaultFilterString = ".*"

type FilterString = string

func DefaultFilterConfig() FilterConfig {
	return FilterConfig{
		NameFilter: DefaultFilterString,
	}
}

type FilterConfig struct {
	NameFilter FilterString
}

func FilterResult(cfg FilterConfig, r Result) (Result, error) {
	if cfg.NameFilter == DefaultFilterString || cfg.NameFilter == "" {
		return r, nil
	}
	nameRe, err := regexp.CompilePOSIX(cfg.NameFilter)
	if err != nil {
		return r, err
	}
	newResult := Result{
		Verified:        r.Verified[:0],
		MissingPairs:    r.MissingPairs[:0],
		ExtraneousPairs: r.ExtraneousPairs[:0],
	}
	for _, v := range r.Verified {
		if matchesFilter(v.Name, nameRe) {
			newResult.Verified = append(newResult.Verified, v)
		}
	}
	for _, t := range r.MissingPairs {
		if matchesFilter(t.Name, nameRe) {
			newResult.MissingPairs = append(newResult.MissingPairs, t)
		}
	}
	for _, t := range r.ExtraneousPairs {
		if matchesFilter(t.Name, nameRe) {
			newResult.ExtraneousPairs = append(newResult.ExtraneousPairs, t)
		}
	}
	return newResult, nil
}

func matchesFilter(n csvtable.Name, nameRe *regexp.Regexp) bool {
	return nameRe.MatchString(string(n))
}
