package assist

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jonathan/resume-tracker/internal/llm"
	"github.com/jonathan/resume-tracker/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClient returns a canned response and records every request.
type fakeClient struct {
	mu       sync.Mutex
	response string
	err      error
	requests []llm.Request
}

func (f *fakeClient) GenerateJSON(_ context.Context, req llm.Request) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	return f.response, f.err
}

func (f *fakeClient) Close() error { return nil }

func (f *fakeClient) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

// memoryCache is an in-process JSONCache.
type memoryCache struct {
	values map[string][]byte
}

func newMemoryCache() *memoryCache {
	return &memoryCache{values: make(map[string][]byte)}
}

func (c *memoryCache) GetJSON(_ context.Context, key string, out any) (bool, error) {
	b, ok := c.values[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(b, out)
}

func (c *memoryCache) SetJSON(_ context.Context, key string, value any, _ time.Duration) error {
	b, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.values[key] = b
	return nil
}

func testProfile() *types.Profile {
	p := types.EmptyProfile()
	p.PersonalInfo.Name = "Jordan Lee"
	p.Experience = []types.Experience{{Title: "Engineer", Company: "Acme", Bullets: []string{"Built the API"}}}
	p.Skills = []types.Skill{{Name: "Go", Category: types.SkillTechnical}, {Name: "Docker", Category: types.SkillTool}}
	return p
}

func TestGenerateSummary_UnwrapsFencedJSON(t *testing.T) {
	client := &fakeClient{response: "```json\n[\"Engineer with Go focus.\", \"Builder of APIs.\"]\n```"}
	svc := NewService(client, nil, 0)

	got, err := svc.GenerateSummary(context.Background(), SummaryRequest{Profile: testProfile(), JobDescription: "Go role"})

	require.NoError(t, err)
	assert.Equal(t, []string{"Engineer with Go focus.", "Builder of APIs."}, got)
	require.Equal(t, 1, client.calls())
	assert.Equal(t, llm.TierStandard, client.requests[0].Tier)
	assert.Contains(t, client.requests[0].Prompt, "Jordan Lee")
	assert.Contains(t, client.requests[0].Prompt, "Go role")
}

func TestGenerateBullets_CleansAndLimits(t *testing.T) {
	client := &fakeClient{response: `["- Led migration", "• Cut latency 30%", "", "Led migration", "Extra one"]`}
	svc := NewService(client, nil, 0)

	got, err := svc.GenerateBullets(context.Background(), BulletsRequest{Title: "Engineer", Company: "Acme", Count: 2})

	require.NoError(t, err)
	assert.Equal(t, []string{"Led migration", "Cut latency 30%"}, got)
	assert.Contains(t, client.requests[0].Prompt, "Write 2 concise bullet points")
}

func TestGenerateBullets_MalformedOutputFallsBack(t *testing.T) {
	svc := NewService(&fakeClient{response: "Sorry, I can't do that."}, nil, 0)

	got, err := svc.GenerateBullets(context.Background(), BulletsRequest{Title: "Engineer"})

	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestGenerateCoverLetter(t *testing.T) {
	client := &fakeClient{response: `Here you go: {"coverLetter": "Dear Acme team,\nI build APIs."}`}
	svc := NewService(client, nil, 0)

	letter, err := svc.GenerateCoverLetter(context.Background(), CoverLetterRequest{
		Profile: testProfile(), Company: "Acme", Title: "Engineer", JobDescription: "Go and Docker",
	})

	require.NoError(t, err)
	assert.Equal(t, "Dear Acme team,\nI build APIs.", letter)
	assert.Equal(t, llm.TierAdvanced, client.requests[0].Tier)
	assert.Contains(t, client.requests[0].Prompt, "professional tone")
	assert.Contains(t, client.requests[0].Prompt, "at most 350 words")
}

func TestGenerateCoverLetter_Malformed(t *testing.T) {
	svc := NewService(&fakeClient{response: `{"letter": 42}`}, nil, 0)

	letter, err := svc.GenerateCoverLetter(context.Background(), CoverLetterRequest{Company: "Acme", Title: "Engineer", JobDescription: "x"})

	require.NoError(t, err)
	assert.Equal(t, "", letter)
}

func TestSuggestSkills_DropsExistingSkills(t *testing.T) {
	client := &fakeClient{response: `{"skills": ["Kubernetes", "go", "Terraform", "kubernetes", "AWS"]}`}
	svc := NewService(client, nil, 0)

	got, err := svc.SuggestSkills(context.Background(), SkillsRequest{Profile: testProfile(), JobDescription: "k8s", Limit: 2})

	require.NoError(t, err)
	assert.Equal(t, []string{"Kubernetes", "Terraform"}, got)
	assert.Equal(t, llm.TierLite, client.requests[0].Tier)
}

func TestComplete_RemoteFailure(t *testing.T) {
	svc := NewService(&fakeClient{err: errors.New("quota exceeded")}, nil, 0)

	_, err := svc.GenerateSummary(context.Background(), SummaryRequest{})

	var assistErr *Error
	require.ErrorAs(t, err, &assistErr)
	assert.Equal(t, "generate-summary", assistErr.Operation)
	assert.Contains(t, err.Error(), "quota exceeded")
}

func TestComplete_Unavailable(t *testing.T) {
	svc := NewService(nil, nil, 0)

	_, err := svc.SuggestSkills(context.Background(), SkillsRequest{JobDescription: "x"})

	assert.ErrorIs(t, err, ErrUnavailable)
	assert.False(t, svc.Available())
}

func TestComplete_CacheHitSkipsClient(t *testing.T) {
	client := &fakeClient{response: `["Summary A"]`}
	svc := NewService(client, newMemoryCache(), time.Hour)
	req := SummaryRequest{Profile: testProfile()}

	first, err := svc.GenerateSummary(context.Background(), req)
	require.NoError(t, err)
	second, err := svc.GenerateSummary(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, client.calls())

	_, err = svc.GenerateSummary(context.Background(), SummaryRequest{Profile: testProfile(), JobDescription: "different"})
	require.NoError(t, err)
	assert.Equal(t, 2, client.calls())
}

func TestParseStringList(t *testing.T) {
	items, ok := parseStringList(`["a", " b ", "A"]`)
	assert.True(t, ok)
	assert.Equal(t, []string{"a", "b"}, items)

	_, ok = parseStringList(`{"a": ["x"], "b": ["y"]}`)
	assert.False(t, ok)

	_, ok = parseStringList(`not json`)
	assert.False(t, ok)
}
