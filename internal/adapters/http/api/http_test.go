package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/myskills/skillhub/internal/adapters/http/api"
	app "github.com/myskills/skillhub/internal/app"
	"github.com/myskills/skillhub/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	_ = logger.Init()
}

const creatorWallet = "0x3333333333333333333333333333333333333333"

func newTestServer(t *testing.T) (*httptest.Server, *app.Service) {
	t.Helper()
	svc := app.New(
		app.WithDataDir(t.TempDir()),
		app.WithDefaultPool(big.NewInt(1000)),
	)
	So(svc.Start(context.Background()), ShouldBeNil)
	t.Cleanup(func() { svc.Stop(context.Background()) })

	mux := http.NewServeMux()
	api.NewServer(svc, svc, 100).Register(context.Background(), mux)
	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)
	return ts, svc
}

func postJSON(ts *httptest.Server, path string, body any) (*http.Response, map[string]any) {
	data, err := json.Marshal(body)
	So(err, ShouldBeNil)
	resp, err := http.Post(ts.URL+path, "application/json", bytes.NewReader(data))
	So(err, ShouldBeNil)
	var decoded map[string]any
	So(json.NewDecoder(resp.Body).Decode(&decoded), ShouldBeNil)
	resp.Body.Close()
	return resp, decoded
}

func getJSON[T any](ts *httptest.Server, path string) (*http.Response, T) {
	resp, err := http.Get(ts.URL + path)
	So(err, ShouldBeNil)
	var decoded T
	So(json.NewDecoder(resp.Body).Decode(&decoded), ShouldBeNil)
	resp.Body.Close()
	return resp, decoded
}

func TestSkillEndpoints(t *testing.T) {
	Convey("Given a running API server", t, func() {
		ts, _ := newTestServer(t)

		Convey("When registering a skill", func() {
			resp, body := postJSON(ts, "/skills", map[string]any{
				"name":           "pdf tools",
				"repository":     "acme/pdf-tools",
				"wallet_address": creatorWallet,
				"keywords":       []string{"pdf"},
			})

			Convey("Then it is created with a canonical descriptor", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusCreated)
				So(body["skill_id"], ShouldNotBeEmpty)
				So(body["repository_url"], ShouldEqual, "https://github.com/acme/pdf-tools")
			})

			Convey("And registering the same source again returns the same ID", func() {
				resp2, body2 := postJSON(ts, "/skills", map[string]any{
					"name":           "PDF Tools",
					"repository":     "github:acme/pdf-tools",
					"wallet_address": creatorWallet,
				})
				So(resp2.StatusCode, ShouldEqual, http.StatusCreated)
				So(body2["skill_id"], ShouldEqual, body["skill_id"])
			})

			Convey("And it appears in the listing", func() {
				resp2, listed := getJSON[[]map[string]any](ts, "/skills")
				So(resp2.StatusCode, ShouldEqual, http.StatusOK)
				So(listed, ShouldHaveLength, 1)
			})

			Convey("And it can be fetched by ID", func() {
				id, _ := body["skill_id"].(string)
				resp2, got := getJSON[map[string]any](ts, "/skills/"+id)
				So(resp2.StatusCode, ShouldEqual, http.StatusOK)
				So(got["name"], ShouldEqual, "pdf tools")
			})
		})

		Convey("When registering with invalid metadata", func() {
			resp, body := postJSON(ts, "/skills", map[string]any{
				"name":           "x",
				"repository":     "acme/x",
				"wallet_address": "0xnope",
			})

			So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
			So(body["code"], ShouldEqual, "bad_request")
		})

		Convey("When fetching an unknown skill", func() {
			resp, body := getJSON[map[string]any](ts, "/skills/0xmissing")

			So(resp.StatusCode, ShouldEqual, http.StatusNotFound)
			So(body["code"], ShouldEqual, "not_found")
		})
	})
}

func TestUsageAndDistributionEndpoints(t *testing.T) {
	Convey("Given a server with one registered skill", t, func() {
		ts, _ := newTestServer(t)
		_, skill := postJSON(ts, "/skills", map[string]any{
			"name":           "summarizer",
			"repository":     "acme/summarizer",
			"wallet_address": creatorWallet,
		})
		skillID, _ := skill["skill_id"].(string)

		Convey("When recording usage", func() {
			resp, body := postJSON(ts, "/usage", map[string]any{
				"skill_id": skillID,
				"user_id":  "user-1",
				"ts":       "2026-03-01T10:00:00Z",
			})

			Convey("Then the event is accepted", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusAccepted)
				So(body["event_id"], ShouldNotBeEmpty)
			})

			Convey("And a distribution over that window pays the creator", func() {
				resp2, record := postJSON(ts, "/distributions", map[string]any{
					"period_start": "2026-03-01T00:00:00Z",
					"period_end":   "2026-03-02T00:00:00Z",
					"pool":         "500",
				})

				So(resp2.StatusCode, ShouldEqual, http.StatusOK)
				perCreator, ok := record["per_creator_amount"].(map[string]any)
				So(ok, ShouldBeTrue)
				So(perCreator[creatorWallet], ShouldEqual, "500")
				So(record["total"], ShouldEqual, "500")

				Convey("And it shows up on the leaderboard", func() {
					resp3, entries := getJSON[[]map[string]any](ts, "/leaderboard?limit=5")
					So(resp3.StatusCode, ShouldEqual, http.StatusOK)
					So(entries, ShouldHaveLength, 1)
					So(entries[0]["total_earnings"], ShouldEqual, "500")
					So(entries[0]["rank"], ShouldEqual, 1)
				})

				Convey("And the record is listed", func() {
					resp3, records := getJSON[[]map[string]any](ts, "/distributions")
					So(resp3.StatusCode, ShouldEqual, http.StatusOK)
					So(records, ShouldHaveLength, 1)
				})
			})
		})

		Convey("When recording usage for an unknown skill", func() {
			resp, _ := postJSON(ts, "/usage", map[string]any{
				"skill_id": "0xmissing",
				"user_id":  "user-1",
			})

			So(resp.StatusCode, ShouldEqual, http.StatusNotFound)
		})

		Convey("When the usage payload is malformed", func() {
			resp, _ := postJSON(ts, "/usage", map[string]any{
				"skill_id": skillID,
			})

			So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When the distribution window is invalid", func() {
			resp, _ := postJSON(ts, "/distributions", map[string]any{
				"period_start": "2026-03-02T00:00:00Z",
				"period_end":   "2026-03-01T00:00:00Z",
			})

			So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When the leaderboard limit is out of range", func() {
			resp, _ := getJSON[map[string]any](ts, "/leaderboard?limit=0")
			So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)

			resp2, _ := getJSON[map[string]any](ts, "/leaderboard?limit=101")
			So(resp2.StatusCode, ShouldEqual, http.StatusBadRequest)
		})
	})
}

func TestBountyEndpoints(t *testing.T) {
	assignee := "0x4444444444444444444444444444444444444444"

	Convey("Given a running API server", t, func() {
		ts, _ := newTestServer(t)
		deadline := time.Now().Add(48 * time.Hour).Format(time.RFC3339)

		Convey("When posting a bounty", func() {
			resp, body := postJSON(ts, "/bounties", map[string]any{
				"title":          "Build a CSV skill",
				"reward":         "250",
				"creator_wallet": creatorWallet,
				"deadline":       deadline,
			})
			bountyID, _ := body["bounty_id"].(string)

			Convey("Then it opens", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusCreated)
				So(body["status"], ShouldEqual, "open")
				So(body["reward"], ShouldEqual, "250")
			})

			Convey("And the lifecycle endpoints drive it to completion", func() {
				resp2, assigned := postJSON(ts, "/bounties/"+bountyID+"/assign", map[string]any{
					"assignee_wallet": assignee,
				})
				So(resp2.StatusCode, ShouldEqual, http.StatusOK)
				So(assigned["status"], ShouldEqual, "assigned")

				resp3, completed := postJSON(ts, "/bounties/"+bountyID+"/complete", map[string]any{})
				So(resp3.StatusCode, ShouldEqual, http.StatusOK)
				So(completed["status"], ShouldEqual, "completed")

				Convey("And further transitions conflict", func() {
					resp4, _ := postJSON(ts, "/bounties/"+bountyID+"/cancel", map[string]any{})
					So(resp4.StatusCode, ShouldEqual, http.StatusConflict)
				})
			})

			Convey("And fetching it by ID returns the record", func() {
				resp2, got := getJSON[map[string]any](ts, "/bounties/"+bountyID)
				So(resp2.StatusCode, ShouldEqual, http.StatusOK)
				So(got["title"], ShouldEqual, "Build a CSV skill")
			})

			Convey("And the status filter works", func() {
				resp2, open := getJSON[[]map[string]any](ts, "/bounties?status=open")
				So(resp2.StatusCode, ShouldEqual, http.StatusOK)
				So(open, ShouldHaveLength, 1)

				resp3, done := getJSON[[]map[string]any](ts, "/bounties?status=completed")
				So(resp3.StatusCode, ShouldEqual, http.StatusOK)
				So(done, ShouldBeEmpty)
			})
		})

		Convey("When posting with a bad reward", func() {
			resp, _ := postJSON(ts, "/bounties", map[string]any{
				"title":          "x",
				"reward":         "lots",
				"creator_wallet": creatorWallet,
				"deadline":       deadline,
			})

			So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When transitioning an unknown bounty", func() {
			resp, _ := postJSON(ts, "/bounties/nope/complete", map[string]any{})

			So(resp.StatusCode, ShouldEqual, http.StatusNotFound)
		})
	})
}

func TestStatsAndHealth(t *testing.T) {
	Convey("Given a running API server", t, func() {
		ts, _ := newTestServer(t)

		Convey("When fetching stats", func() {
			resp, stats := getJSON[map[string]any](ts, "/stats")

			So(resp.StatusCode, ShouldEqual, http.StatusOK)
			So(stats["started"], ShouldBeTrue)
		})

		Convey("When probing health", func() {
			resp, err := http.Get(ts.URL + "/healthz")
			So(err, ShouldBeNil)
			resp.Body.Close()

			So(resp.StatusCode, ShouldEqual, http.StatusOK)
		})
	})
}
