// Package pairverify is responsible for pairing the source and comparison
// files which hold the same table.
package pairverify

import (
	"context"
	"sort"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/tablecmp/csvtable"
	"github.com/cockroachdb/tablecmp/datablobstorage"
	"github.com/cockroachdb/tablecmp/verify/inconsistency"
	"github.com/cockroachdb/tablecmp/verify/verifybase"
)

const csvSuffix = ".csv"

// Pair is a table found in both stores.
type Pair struct {
	Name      csvtable.Name
	Resources [2]datablobstorage.Resource
}

type Result struct {
	Verified []Pair

	MissingPairs    []inconsistency.MissingPair
	ExtraneousPairs []inconsistency.ExtraneousPair
}

type namedResource struct {
	name csvtable.Name
	datablobstorage.Resource
}

type pairIterator struct {
	resources []namedResource
	currIdx   int
}

func (c *pairIterator) done() bool {
	return c.currIdx >= len(c.resources)
}

func (c *pairIterator) next() {
	c.currIdx++
}

func (c *pairIterator) curr() namedResource {
	return c.resources[c.currIdx]
}

// TableName returns the name of the table held in the object with the given
// key, or false if the object does not hold a table.
func TableName(key string) (csvtable.Name, bool) {
	base, _ := datablobstorage.SplitCompression(key)
	if !strings.HasSuffix(strings.ToLower(base), csvSuffix) {
		return "", false
	}
	return csvtable.Name(base), true
}

// Verify lists both stores and pairs their tables by name.
func Verify(ctx context.Context, stores [2]datablobstorage.Store) (Result, error) {
	var iterators [2]pairIterator
	for i, store := range stores {
		resources, err := store.List(ctx)
		if err != nil {
			return Result{}, errors.Wrapf(err, "error listing %s files", verifybase.Side(i))
		}
		iterators[i] = pairIterator{resources: nameResources(resources)}
	}
	return compare(iterators), nil
}

// nameResources keeps the resources holding tables, sorted by name. If more
// than one resource holds the same table, the first by key is kept.
func nameResources(resources []datablobstorage.Resource) []namedResource {
	var ret []namedResource
	for _, r := range resources {
		if name, ok := TableName(r.Key()); ok {
			ret = append(ret, namedResource{name: name, Resource: r})
		}
	}
	sort.SliceStable(ret, func(i, j int) bool {
		if ret[i].name != ret[j].name {
			return ret[i].name.Less(ret[j].name)
		}
		return ret[i].Key() < ret[j].Key()
	})
	deduped := ret[:0]
	for i, r := range ret {
		if i > 0 && r.name == ret[i-1].name {
			continue
		}
		deduped = append(deduped, r)
	}
	return deduped
}

// compare compares two lists of tables.
// It assumes tables are in sorted order in each iterator.
func compare(iterators [2]pairIterator) Result {
	ret := Result{}
	sourceIterator := &iterators[0]
	comparisonIterator := &iterators[1]
	for !sourceIterator.done() {
		// An exhausted comparison iterator means every remaining source table
		// is missing its counterpart.
		compareVal := 1
		if !comparisonIterator.done() {
			compareVal = comparisonIterator.curr().name.Compare(sourceIterator.curr().name)
		}
		switch compareVal {
		case -1:
			ret.ExtraneousPairs = append(
				ret.ExtraneousPairs,
				inconsistency.ExtraneousPair{Name: comparisonIterator.curr().name},
			)
			comparisonIterator.next()
		case 0:
			ret.Verified = append(ret.Verified, Pair{
				Name: sourceIterator.curr().name,
				Resources: [2]datablobstorage.Resource{
					sourceIterator.curr().Resource,
					comparisonIterator.curr().Resource,
				},
			})
			comparisonIterator.next()
			sourceIterator.next()
		case 1:
			ret.MissingPairs = append(
				ret.MissingPairs,
				inconsistency.MissingPair{Name: sourceIterator.curr().name},
			)
			sourceIterator.next()
		}
	}

	for !comparisonIterator.done() {
		ret.ExtraneousPairs = append(
			ret.ExtraneousPairs,
			inconsistency.ExtraneousPair{Name: comparisonIterator.curr().name},
		)
		comparisonIterator.next()
	}
	return ret
}
