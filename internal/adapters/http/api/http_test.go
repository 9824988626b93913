package api_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/fairwaylab/greenside/internal/adapters/http/api"
	"github.com/fairwaylab/greenside/internal/adapters/repository"
	service "github.com/fairwaylab/greenside/internal/app"
	"github.com/fairwaylab/greenside/internal/domain/model"
	"github.com/fairwaylab/greenside/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMain(m *testing.M) {
	if err := logger.Init(); err != nil {
		os.Exit(1)
	}
	os.Exit(m.Run())
}

type fixture struct {
	svc    *service.Service
	server *httptest.Server
}

func newFixture() *fixture {
	svc := service.New(
		service.WithStore(repository.NewMemoryStore()),
		service.WithWorkerCount(1),
	)
	So(svc.Start(context.Background()), ShouldBeNil)
	srv := httptest.NewServer(api.NewServer(svc).Router())
	return &fixture{svc: svc, server: srv}
}

func (f *fixture) close() {
	f.server.Close()
	f.svc.Stop()
}

func (f *fixture) postRound(playerID, body string) *http.Response {
	resp, err := http.Post(
		f.server.URL+"/api/v1/players/"+playerID+"/rounds",
		"application/json",
		strings.NewReader(body),
	)
	So(err, ShouldBeNil)
	return resp
}

func (f *fixture) get(path string) *http.Response {
	resp, err := http.Get(f.server.URL + path)
	So(err, ShouldBeNil)
	return resp
}

func decode[T any](resp *http.Response) T {
	defer resp.Body.Close()
	var out T
	So(json.NewDecoder(resp.Body).Decode(&out), ShouldBeNil)
	return out
}

func roundBody(score int, date string) string {
	return fmt.Sprintf(`{"score":%d,"course_rating":72.0,"slope_rating":113,"date_played":%q}`, score, date)
}

func TestRoundsEndpoint(t *testing.T) {
	Convey("Given the handicap API", t, func() {
		f := newFixture()
		Reset(f.close)

		Convey("When a valid round is posted", func() {
			resp := f.postRound("p1", roundBody(85, "2025-05-01T10:00:00Z"))

			Convey("Then it is accepted with a minted round id", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusAccepted)
				ack := decode[map[string]string](resp)
				So(ack["status"], ShouldEqual, "accepted")
				So(ack["round_id"], ShouldNotBeEmpty)
			})
		})

		Convey("When the same round id is posted twice", func() {
			body := `{"round_id":"r-dup","score":85,"course_rating":72.0,"slope_rating":113,"date_played":"2025-05-01T10:00:00Z"}`
			first := f.postRound("p1", body)
			So(first.StatusCode, ShouldEqual, http.StatusAccepted)
			first.Body.Close()

			second := f.postRound("p1", body)

			Convey("Then the duplicate conflicts", func() {
				So(second.StatusCode, ShouldEqual, http.StatusConflict)
				errBody := decode[map[string]string](second)
				So(errBody["code"], ShouldEqual, "conflict")
			})
		})

		Convey("When the body is invalid", func() {
			cases := map[string]string{
				"not JSON": `{score:`,
				"no score": `{"course_rating":72.0,"slope_rating":113,"date_played":"2025-05-01T10:00:00Z"}`,
				"no date":  `{"score":85,"course_rating":72.0,"slope_rating":113}`,
				"bad date": `{"score":85,"course_rating":72.0,"slope_rating":113,"date_played":"yesterday"}`,
				"no slope": `{"score":85,"course_rating":72.0,"date_played":"2025-05-01T10:00:00Z"}`,
			}
			for name, body := range cases {
				Convey("Then the "+name+" case is a 400", func() {
					resp := f.postRound("p1", body)
					So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
					resp.Body.Close()
				})
			}
		})
	})
}

func TestHandicapEndpoints(t *testing.T) {
	ctx := context.Background()

	Convey("Given the handicap API", t, func() {
		f := newFixture()
		Reset(f.close)

		Convey("When a player has no rounds", func() {
			resp := f.get("/api/v1/players/p1/handicap")

			Convey("Then the index query is a distinct 404", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusNotFound)
				errBody := decode[map[string]string](resp)
				So(errBody["code"], ShouldEqual, "no_index")
			})
		})

		Convey("When enough rounds have been recorded", func() {
			for i, score := range []int{85, 88, 82} {
				resp := f.postRound("p1", roundBody(score, fmt.Sprintf("2025-05-0%dT10:00:00Z", i+1)))
				So(resp.StatusCode, ShouldEqual, http.StatusAccepted)
				resp.Body.Close()
			}
			// Recalculation is asynchronous; force one deterministically.
			So(f.svc.Recalculate(ctx, model.RecalcJob{PlayerID: "p1"}), ShouldBeNil)

			Convey("Then the index is served", func() {
				resp := f.get("/api/v1/players/p1/handicap")
				So(resp.StatusCode, ShouldEqual, http.StatusOK)
				idx := decode[map[string]any](resp)
				// best 1 of {13, 16, 10} = 10; 10 * 0.96 = 9.6
				So(idx["value"], ShouldEqual, 9.6)
				So(idx["subject_kind"], ShouldEqual, "player")
				So(idx["method"], ShouldEqual, "WHS")
			})

			Convey("And the course handicap can be projected", func() {
				resp := f.get("/api/v1/players/p1/course-handicap?rating=72.0&slope=113&par=72")
				So(resp.StatusCode, ShouldEqual, http.StatusOK)
				proj := decode[model.CourseProjection](resp)
				So(proj.CourseHandicap, ShouldEqual, 10)
				So(proj.ExpectedScore, ShouldEqual, 82)
			})
		})

		Convey("When rounds are scoped to an equipment set", func() {
			for i, score := range []int{84, 87, 90} {
				body := fmt.Sprintf(
					`{"equipment_set_id":"bag-a","score":%d,"course_rating":72.0,"slope_rating":113,"date_played":"2025-06-0%dT10:00:00Z"}`,
					score, i+1)
				resp := f.postRound("p1", body)
				So(resp.StatusCode, ShouldEqual, http.StatusAccepted)
				resp.Body.Close()
			}
			So(f.svc.Recalculate(ctx, model.RecalcJob{PlayerID: "p1", EquipmentSetID: "bag-a"}), ShouldBeNil)

			Convey("Then the equipment-set index is served separately", func() {
				resp := f.get("/api/v1/players/p1/equipment-sets/bag-a/handicap")
				So(resp.StatusCode, ShouldEqual, http.StatusOK)
				idx := decode[map[string]any](resp)
				So(idx["subject_kind"], ShouldEqual, "equipmentSet")
				So(idx["subject_id"], ShouldEqual, "bag-a")
			})

			Convey("And an unknown equipment set stays a 404", func() {
				resp := f.get("/api/v1/players/p1/equipment-sets/bag-z/handicap")
				So(resp.StatusCode, ShouldEqual, http.StatusNotFound)
				resp.Body.Close()
			})
		})

		Convey("When projection parameters are malformed", func() {
			for name, query := range map[string]string{
				"missing rating": "slope=113",
				"bad slope":      "rating=72.0&slope=cliff",
				"zero slope":     "rating=72.0&slope=0",
				"bad par":        "rating=72.0&slope=113&par=-4",
			} {
				Convey("Then the "+name+" case is a 400", func() {
					resp := f.get("/api/v1/players/p1/course-handicap?" + query)
					So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
					resp.Body.Close()
				})
			}
		})
	})
}

func TestHealthAndMetrics(t *testing.T) {
	Convey("Given the handicap API", t, func() {
		f := newFixture()
		Reset(f.close)

		Convey("When health is probed", func() {
			resp := f.get("/healthz")

			Convey("Then it reports ok", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusOK)
				body := decode[map[string]string](resp)
				So(body["status"], ShouldEqual, "ok")
			})
		})

		Convey("When metrics are scraped", func() {
			resp := f.get("/metrics")

			Convey("Then the Prometheus registry responds", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusOK)
				resp.Body.Close()
			})
		})
	})
}

// Ensure a fixture can be torn down and rebuilt without leaking state;
// guards against global registry double-registration regressions.
func TestFixtureLifecycle(t *testing.T) {
	Convey("Given two consecutive API fixtures", t, func() {
		first := newFixture()
		first.close()

		second := newFixture()
		Reset(second.close)

		Convey("When the second one serves traffic", func() {
			resp := second.get("/healthz")

			Convey("Then it works independently of the first", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusOK)
				resp.Body.Close()
			})
		})
	})
}
