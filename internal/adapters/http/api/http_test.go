package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/okian/lineup/internal/adapters/http/api"
	"github.com/okian/lineup/internal/adapters/repository"
	service "github.com/okian/lineup/internal/app"
	"github.com/okian/lineup/internal/domain/model"
	"github.com/okian/lineup/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

const fullRatings = `{"attack":%d,"defense":%d,"mobility":%d,"possession":%d,"stamina":%d}`

func ratings(r int) map[string]int {
	return map[string]int{"attack": r, "defense": r, "mobility": r, "possession": r, "stamina": r}
}

func do(h http.Handler, method, path, body string, headers ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decode[T any](w *httptest.ResponseRecorder) T {
	var v T
	So(json.Unmarshal(w.Body.Bytes(), &v), ShouldBeNil)
	return v
}

func newService(store repository.Store) *service.Service {
	svc, err := service.New(service.WithStore(store), service.WithWorkerCount(1))
	So(err, ShouldBeNil)
	So(svc.Start(context.Background()), ShouldBeNil)
	return svc
}

func TestBalanceRoutes(t *testing.T) {
	Convey("Given a server over a service with rated players", t, func() {
		store := repository.NewMemoryStore()
		for i, p := range []struct {
			name   string
			rating int
		}{{"A", 8}, {"B", 8}, {"C", 2}, {"D", 2}} {
			_, err := store.RecordVote(context.Background(), model.Vote{
				ID: string(rune('1' + i)), Voter: "coach", Player: p.name, Ratings: ratings(p.rating),
			})
			So(err, ShouldBeNil)
		}
		svc := newService(store)
		defer func() { _ = svc.Stop(context.Background()) }()
		h := api.NewServer(svc).Router()

		Convey("When balancing four players", func() {
			w := do(h, http.MethodPost, "/api/v1/balance", `{"players":["A","B","C","D"],"team_size":2,"tolerance":0.5,"seed":7}`)

			Convey("Then only names and diagnostics should come back", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				var raw map[string]any
				So(json.Unmarshal(w.Body.Bytes(), &raw), ShouldBeNil)
				So(raw, ShouldNotContainKey, "score_a")
				So(raw, ShouldNotContainKey, "score_b")

				res := decode[types.BalanceResponse](w)
				So(res.Found, ShouldBeTrue)
				So(res.TeamA, ShouldHaveLength, 2)
				So(res.Gap, ShouldEqual, 0)
				So(res.Seed, ShouldEqual, 7)
				So(res.Reason, ShouldEqual, "matched")
			})
		})

		Convey("When no pair fits", func() {
			w := do(h, http.MethodPost, "/api/v1/balance", `{"players":["A","C"],"tolerance":0,"max_relax_cycles":0}`)

			Convey("Then a 200 with found false should come back", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				res := decode[types.BalanceResponse](w)
				So(res.Found, ShouldBeFalse)
				So(res.TeamA, ShouldBeNil)
				So(res.Reason, ShouldEqual, "cycles_exhausted")
			})
		})

		Convey("When the pool is invalid", func() {
			tooSmall := do(h, http.MethodPost, "/api/v1/balance", `{"players":["A"]}`)
			dup := do(h, http.MethodPost, "/api/v1/balance", `{"players":["A","A"]}`)
			garbage := do(h, http.MethodPost, "/api/v1/balance", `{"players":`)
			unknown := do(h, http.MethodPost, "/api/v1/balance", `{"players":["A","B"],"mode":"fast"}`)

			Convey("Then it should be rejected as a bad request", func() {
				So(tooSmall.Code, ShouldEqual, http.StatusBadRequest)
				So(decode[types.ErrorResponse](tooSmall).Code, ShouldEqual, "invalid_configuration")
				So(dup.Code, ShouldEqual, http.StatusBadRequest)
				So(decode[types.ErrorResponse](dup).Code, ShouldEqual, "bad_request")
				So(garbage.Code, ShouldEqual, http.StatusBadRequest)
				So(unknown.Code, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("When reading a player's scores", func() {
			w := do(h, http.MethodGet, "/api/v1/players/A/scores", "")

			Convey("Then every skill mean and the overall should be listed", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				res := decode[types.PlayerScores](w)
				So(res.Player, ShouldEqual, "A")
				So(res.Overall, ShouldEqual, 8)
				So(res.Skills, ShouldHaveLength, 5)
			})
		})
	})
}

func TestVoteRoutes(t *testing.T) {
	Convey("Given a server over a started service", t, func() {
		store := repository.NewMemoryStore()
		svc := newService(store)
		defer func() { _ = svc.Stop(context.Background()) }()
		h := api.NewServer(svc).Router()
		body := `{"vote_id":"v1","voter":"ana","player":"bo","ratings":{"attack":7,"defense":6,"mobility":5,"possession":4,"stamina":3}}`

		Convey("When a vote is posted twice", func() {
			first := do(h, http.MethodPost, "/api/v1/votes", body)
			second := do(h, http.MethodPost, "/api/v1/votes", body)

			Convey("Then it should be accepted once and acknowledged as a duplicate", func() {
				So(first.Code, ShouldEqual, http.StatusAccepted)
				So(decode[types.Ack](first).Status, ShouldEqual, types.StatusAccepted)
				So(second.Code, ShouldEqual, http.StatusOK)
				So(decode[types.Ack](second).Duplicate, ShouldBeTrue)
			})

			Convey("Then it should become readable once persisted", func() {
				So(waitFor(func() bool { return store.Count(context.Background()) == 1 }), ShouldBeTrue)

				get := do(h, http.MethodGet, "/api/v1/votes/v1", "")
				So(get.Code, ShouldEqual, http.StatusOK)
				So(decode[types.Vote](get).Ratings["attack"], ShouldEqual, 7)

				list := do(h, http.MethodGet, "/api/v1/votes?voter=ana", "")
				So(list.Code, ShouldEqual, http.StatusOK)
				So(decode[[]types.Vote](list), ShouldHaveLength, 1)

				none := do(h, http.MethodGet, "/api/v1/votes?voter=zed", "")
				So(decode[[]types.Vote](none), ShouldHaveLength, 0)
			})

			Convey("Then only the voter should be able to edit it", func() {
				So(waitFor(func() bool { return store.Count(context.Background()) == 1 }), ShouldBeTrue)
				update := `{"ratings":{"attack":9,"defense":9,"mobility":9,"possession":9,"stamina":9}}`

				anonymous := do(h, http.MethodPut, "/api/v1/votes/v1", update)
				other := do(h, http.MethodPut, "/api/v1/votes/v1", update, api.HeaderVoter, "mallory")
				owner := do(h, http.MethodPut, "/api/v1/votes/v1", update, api.HeaderVoter, "ana")
				empty := do(h, http.MethodPut, "/api/v1/votes/v1", `{"ratings":{}}`, api.HeaderVoter, "ana")

				So(anonymous.Code, ShouldEqual, http.StatusForbidden)
				So(other.Code, ShouldEqual, http.StatusForbidden)
				So(owner.Code, ShouldEqual, http.StatusOK)
				So(decode[types.Vote](owner).Ratings["stamina"], ShouldEqual, 9)
				So(empty.Code, ShouldEqual, http.StatusBadRequest)

				scores := do(h, http.MethodGet, "/api/v1/players/bo/scores", "")
				So(decode[types.PlayerScores](scores).Overall, ShouldEqual, 9)
			})
		})

		Convey("When a vote is malformed", func() {
			w := do(h, http.MethodPost, "/api/v1/votes", `{"voter":"ana","player":"bo","ratings":{"attack":7}}`)
			So(w.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When an unknown vote is fetched", func() {
			w := do(h, http.MethodGet, "/api/v1/votes/nope", "")
			So(w.Code, ShouldEqual, http.StatusNotFound)
			So(decode[types.ErrorResponse](w).Code, ShouldEqual, "not_found")
		})
	})
}

// failingDeps reports err from every operation.
type failingDeps struct{ err error }

func (f failingDeps) GetStats(context.Context) map[string]any { return map[string]any{"started": false} }
func (f failingDeps) Balance(context.Context, service.BalanceRequest) (service.BalanceResult, error) {
	return service.BalanceResult{}, f.err
}
func (f failingDeps) SkillScores(context.Context, string) (service.PlayerScores, error) {
	return service.PlayerScores{}, f.err
}
func (f failingDeps) RecordVote(context.Context, model.Vote) (service.Receipt, error) {
	return service.Receipt{}, f.err
}
func (f failingDeps) UpdateVote(context.Context, string, string, map[string]int) (model.Vote, error) {
	return model.Vote{}, f.err
}
func (f failingDeps) GetVote(context.Context, string) (model.Vote, error) { return model.Vote{}, f.err }
func (f failingDeps) ListVotes(context.Context, string) ([]model.Vote, error) { return nil, f.err }

func TestErrorMapping(t *testing.T) {
	Convey("Given handlers over failing dependencies", t, func() {
		vote := `{"voter":"ana","player":"bo","ratings":{}}`
		cases := []struct {
			err    error
			status int
			code   string
		}{
			{service.ErrQueueFull, http.StatusTooManyRequests, "backpressure"},
			{service.ErrNotStarted, http.StatusServiceUnavailable, "unavailable"},
			{repository.ErrAlreadyExists, http.StatusConflict, "conflict"},
			{context.DeadlineExceeded, http.StatusGatewayTimeout, "timeout"},
			{errors.New("disk on fire"), http.StatusInternalServerError, "internal_error"},
		}
		for _, c := range cases {
			h := api.NewServer(failingDeps{err: c.err}).Router()
			w := do(h, http.MethodPost, "/api/v1/votes", vote)
			So(w.Code, ShouldEqual, c.status)
			res := decode[types.ErrorResponse](w)
			So(res.Code, ShouldEqual, c.code)
			if c.status == http.StatusInternalServerError {
				So(res.Message, ShouldNotContainSubstring, "disk")
			}
		}
	})
}

func TestOperationalRoutes(t *testing.T) {
	Convey("Given a server", t, func() {
		h := api.NewServer(failingDeps{}).Router()

		Convey("Health should report ok", func() {
			w := do(h, http.MethodGet, "/healthz", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, `"status":"ok"`)
		})

		Convey("Stats should expose the provider map", func() {
			w := do(h, http.MethodGet, "/stats", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(decode[map[string]any](w)["started"], ShouldEqual, false)
		})

		Convey("Metrics should be served in the Prometheus format", func() {
			do(h, http.MethodGet, "/healthz", "")
			w := do(h, http.MethodGet, "/metrics", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, "http_requests_total")
		})

		Convey("Unknown routes should 404", func() {
			So(do(h, http.MethodGet, "/leaderboard", "").Code, ShouldEqual, http.StatusNotFound)
			So(do(h, http.MethodDelete, "/api/v1/votes/x", "").Code, ShouldEqual, http.StatusMethodNotAllowed)
		})
	})
}

func waitFor(cond func() bool) bool {
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return cond()
}
