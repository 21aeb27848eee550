package listing

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"go-freight/internal/common/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// BuildFilter translates criteria into a Mongo filter over schema's
// collection. Deleted and excluded records never match.
func BuildFilter(schema ResourceSchema, criteria models.FilterCriteria) (bson.M, error) {
	if err := criteria.Validate(); err != nil {
		return nil, err
	}

	conditions := []bson.M{
		{FieldDeleted: bson.M{"$ne": true}},
		{FieldExcludedAt: bson.M{"$exists": false}},
	}

	if search := strings.TrimSpace(criteria.Search); search != "" && len(schema.SearchFields) > 0 {
		pattern := primitive.Regex{Pattern: regexp.QuoteMeta(search), Options: "i"}
		or := make(bson.A, 0, len(schema.SearchFields))
		for _, field := range schema.SearchFields {
			or = append(or, bson.M{field: pattern})
		}
		conditions = append(conditions, bson.M{"$or": or})
	}

	if schema.DateField != "" && (!criteria.DateFrom.IsZero() || !criteria.DateTo.IsZero()) {
		rng := bson.M{}
		if !criteria.DateFrom.IsZero() {
			rng["$gte"] = startOfDay(criteria.DateFrom)
		}
		if !criteria.DateTo.IsZero() {
			// inclusive upper day
			rng["$lt"] = startOfDay(criteria.DateTo).AddDate(0, 0, 1)
		}
		conditions = append(conditions, bson.M{schema.DateField: rng})
	}

	keys := make([]string, 0, len(criteria.Categories))
	for k := range criteria.Categories {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, key := range keys {
		cat, ok := schema.Categories[key]
		if !ok {
			return nil, fmt.Errorf("%w %q for %s", ErrUnknownFilter, key, schema.Name)
		}
		values := cleanValues(criteria.Categories[key])
		if len(values) == 0 {
			continue
		}
		for _, v := range values {
			if !cat.accepts(v) {
				return nil, fmt.Errorf("%w value %q for %q", ErrUnknownFilter, v, key)
			}
		}
		if len(values) == 1 {
			conditions = append(conditions, bson.M{cat.Field: values[0]})
		} else {
			conditions = append(conditions, bson.M{cat.Field: bson.M{"$in": values}})
		}
	}

	if len(conditions) == 1 {
		return conditions[0], nil
	}
	return bson.M{"$and": conditions}, nil
}

// ExcludingIDs narrows filter to records whose id is not in ids.
func ExcludingIDs(filter bson.M, ids []primitive.ObjectID) bson.M {
	if len(ids) == 0 {
		return filter
	}
	return bson.M{"$and": bson.A{filter, bson.M{"_id": bson.M{"$nin": ids}}}}
}

// ActiveByIDs matches the listed, still visible records.
func ActiveByIDs(ids []primitive.ObjectID) bson.M {
	return bson.M{
		"_id":           bson.M{"$in": ids},
		FieldDeleted:    bson.M{"$ne": true},
		FieldExcludedAt: bson.M{"$exists": false},
	}
}

// ParseObjectIDs converts hex ids, dropping duplicates.
func ParseObjectIDs(ids []string) ([]primitive.ObjectID, error) {
	out := make([]primitive.ObjectID, 0, len(ids))
	seen := make(map[primitive.ObjectID]bool, len(ids))
	for _, id := range ids {
		oid, err := primitive.ObjectIDFromHex(strings.TrimSpace(id))
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrInvalidID, id)
		}
		if seen[oid] {
			continue
		}
		seen[oid] = true
		out = append(out, oid)
	}
	return out, nil
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func cleanValues(values []string) []string {
	var out []string
	seen := map[string]bool{}
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}
