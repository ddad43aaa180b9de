package grouping

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/seoforge/seoforge-api/internal/domain"
)

// BucketSize is the width of the time window folded into every group key.
// Two tasks group together only if floor(created_at / BucketSize) coincides;
// tasks straddling a bucket boundary are never grouped, even if submitted
// seconds apart. This is a presentation heuristic, not a semantic guarantee.
const BucketSize = 5 * time.Minute

var bucketSizeMillis = BucketSize.Milliseconds()

// ErrInvalidGroupID is returned when a group id cannot be decoded back
// into a structured key.
var ErrInvalidGroupID = errors.New("invalid group id")

// keyFields maps each task type to the subset of its submission params
// that participates in the group key, in a fixed order.
var keyFields = map[domain.TaskType][]string{
	domain.TaskTypeSERP:                   {"keyword", "location_name", "language_name", "depth"},
	domain.TaskTypeOnPage:                 {"target", "max_crawl_pages"},
	domain.TaskTypeKeywordsForKeywords:    {"keywords", "location_name", "language_name"},
	domain.TaskTypeKeywordsForSite:        {"target", "location_name", "language_name"},
	domain.TaskTypeDomainCompetitors:      {"target", "location_name", "language_name"},
	domain.TaskTypeDomainRankOverview:     {"target", "location_name", "language_name"},
	domain.TaskTypeContentAnalysisSummary: {"target", "location_name", "language_name"},
}

// Key is the structured composite key a task's group membership is derived
// from: the task type, the ordered values of the type's key params, and the
// index of the 5-minute window its submission fell into.
//
// Keys are carried as values, not as delimited strings; the API-facing group
// id is an encoding of the whole struct, so decoding reconstructs the exact
// filter without lossy string splitting.
type Key struct {
	Type   domain.TaskType `json:"type"`
	Fields []string        `json:"fields"`
	Bucket int64           `json:"bucket"`
}

// KeyForTask derives the group key for a task from its stored params and
// creation time. Tasks whose params cannot be parsed fall back to the raw
// params text as a single key field, so every task still lands in exactly
// one group.
func KeyForTask(task *domain.Task) Key {
	fields, ok := keyFields[task.Type]
	if !ok {
		fields = nil
	}

	key := Key{
		Type:   task.Type,
		Bucket: task.CreatedAt.UnixMilli() / bucketSizeMillis,
	}

	var params map[string]any
	if err := json.Unmarshal(task.Params, &params); err != nil {
		key.Fields = []string{string(task.Params)}
		return key
	}

	key.Fields = make([]string, 0, len(fields))
	for _, name := range fields {
		key.Fields = append(key.Fields, fieldValue(params[name]))
	}

	return key
}

// fieldValue renders one params value into its canonical key form.
// Numbers keep their shortest decimal form, keyword arrays are sorted so
// submission order does not split groups, and missing fields contribute an
// empty string (still part of the key).
func fieldValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case bool:
		return strconv.FormatBool(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case []any:
		parts := make([]string, 0, len(val))
		for _, item := range val {
			parts = append(parts, fieldValue(item))
		}
		sort.Strings(parts)
		return strings.Join(parts, ",")
	default:
		return fmt.Sprintf("%v", val)
	}
}

// Equal reports whether two keys identify the same group.
func (k Key) Equal(other Key) bool {
	if k.Type != other.Type || k.Bucket != other.Bucket || len(k.Fields) != len(other.Fields) {
		return false
	}
	for i := range k.Fields {
		if k.Fields[i] != other.Fields[i] {
			return false
		}
	}
	return true
}

// fingerprint returns a canonical string form used as a map key during
// aggregation. It is never exposed outside the package.
func (k Key) fingerprint() string {
	return string(k.Type) + "\x1f" + strings.Join(k.Fields, "\x1f") + "\x1f" + strconv.FormatInt(k.Bucket, 10)
}

// Window returns the half-open [start, end) time range covered by the
// key's bucket.
func (k Key) Window() (time.Time, time.Time) {
	start := time.UnixMilli(k.Bucket * bucketSizeMillis).UTC()
	return start, start.Add(BucketSize)
}

// Encode serializes the key into the opaque group id used in API routes.
func (k Key) Encode() string {
	raw, err := json.Marshal(k)
	if err != nil {
		// Key contains only marshalable fields; this cannot happen.
		panic(err)
	}
	return base64.RawURLEncoding.EncodeToString(raw)
}

// DecodeKey reverses Encode. Returns ErrInvalidGroupID if the id is not a
// well-formed encoded key or names an unsupported task type.
func DecodeKey(id string) (Key, error) {
	raw, err := base64.RawURLEncoding.DecodeString(id)
	if err != nil {
		return Key{}, fmt.Errorf("%w: %v", ErrInvalidGroupID, err)
	}

	var key Key
	if err := json.Unmarshal(raw, &key); err != nil {
		return Key{}, fmt.Errorf("%w: %v", ErrInvalidGroupID, err)
	}

	if !domain.IsValidTaskType(key.Type) {
		return Key{}, fmt.Errorf("%w: unknown task type %q", ErrInvalidGroupID, key.Type)
	}

	return key, nil
}
