package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/ivankudzin/tgrelay/internal/domain/model"
	"github.com/ivankudzin/tgrelay/internal/services/reactions"
	"github.com/ivankudzin/tgrelay/internal/transport/http/dto"
)

type fakeStats struct {
	stats model.SubmissionStats
}

func (f fakeStats) Stats() model.SubmissionStats {
	return f.stats
}

func newStatsRouter(agg *reactions.Service, channelID int64) http.Handler {
	h := NewStatsHandler(agg, fakeStats{stats: model.SubmissionStats{AwaitingChoice: 2, Queued: 1}}, func() int64 { return channelID })

	r := chi.NewRouter()
	r.Get("/v1/chats/{chatID}/reactions/top", h.TopReactions)
	r.Get("/v1/chats/{chatID}/messages/{messageID}/reactions", h.MessageReactions)
	r.Get("/v1/channel/reactions/top", h.ChannelTopReactions)
	r.Get("/v1/submissions/stats", h.SubmissionStats)
	return r
}

func TestTopReactionsReturnsOrderedItems(t *testing.T) {
	agg := reactions.NewService(nil)
	agg.Apply(-100, 3, []string{"👍", "👍", "❤"}, nil)
	agg.Apply(-100, 2, []string{"🔥", "🔥", "🔥", "🔥", "🔥"}, nil)
	agg.Apply(-100, 1, []string{"👍", "👍", "👍", "❤", "❤"}, nil)

	req := httptest.NewRequest(http.MethodGet, "/v1/chats/-100/reactions/top?n=2", nil)
	rr := httptest.NewRecorder()
	newStatsRouter(agg, 0).ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("unexpected status: got %d want %d", rr.Code, http.StatusOK)
	}

	var resp dto.TopReactionsResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.ChatID != -100 || resp.Limit != 2 || len(resp.Items) != 2 {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if resp.Items[0].MessageID != 1 || resp.Items[1].MessageID != 2 {
		t.Fatalf("unexpected ordering: %+v", resp.Items)
	}
	if resp.Items[0].Counts[0].Emoji != "👍" || resp.Items[0].Counts[0].Count != 3 {
		t.Fatalf("expected counts sorted by count desc: %+v", resp.Items[0].Counts)
	}
}

func TestMessageReactionsValidatesParams(t *testing.T) {
	agg := reactions.NewService(nil)
	agg.Apply(5, 9, []string{"👍"}, nil)
	router := newStatsRouter(agg, 0)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/chats/5/messages/9/reactions", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("unexpected status: got %d want %d", rr.Code, http.StatusOK)
	}
	var resp dto.MessageReactionsResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Total != 1 || len(resp.Counts) != 1 {
		t.Fatalf("unexpected response: %+v", resp)
	}

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/chats/abc/messages/9/reactions", nil))
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("unexpected status for bad chat id: got %d", rr.Code)
	}

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/chats/5/messages/0/reactions", nil))
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("unexpected status for bad message id: got %d", rr.Code)
	}
}

func TestChannelTopReactionsRequiresResolvedChannel(t *testing.T) {
	agg := reactions.NewService(nil)
	agg.Apply(-1009, 1, []string{"👍"}, nil)

	rr := httptest.NewRecorder()
	newStatsRouter(agg, 0).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/channel/reactions/top", nil))
	if rr.Code != http.StatusNotFound {
		t.Fatalf("unexpected status: got %d want %d", rr.Code, http.StatusNotFound)
	}

	rr = httptest.NewRecorder()
	newStatsRouter(agg, -1009).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/channel/reactions/top", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("unexpected status: got %d want %d", rr.Code, http.StatusOK)
	}
}

func TestSubmissionStats(t *testing.T) {
	rr := httptest.NewRecorder()
	newStatsRouter(reactions.NewService(nil), 0).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/submissions/stats", nil))

	var resp dto.SubmissionStatsResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.AwaitingChoice != 2 || resp.Queued != 1 {
		t.Fatalf("unexpected stats: %+v", resp)
	}
}
