package service_test

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	service "github.com/okian/lineup/internal/app"
	"github.com/okian/lineup/internal/adapters/repository"
	"github.com/okian/lineup/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestServiceIntegration(t *testing.T) {
	Convey("Given a service persisting votes to sqlite", t, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		store, err := repository.OpenSQLite(ctx, filepath.Join(t.TempDir(), "votes.db"))
		So(err, ShouldBeNil)
		svc, err := service.New(
			service.WithStore(store),
			service.WithWorkerCount(2),
			service.WithQueueSize(100),
		)
		So(err, ShouldBeNil)
		So(svc.Start(ctx), ShouldBeNil)
		defer func() { _ = svc.Stop(ctx) }()

		Convey("When eight players receive votes from three voters", func() {
			players := []string{"p1", "p2", "p3", "p4", "p5", "p6", "p7", "p8"}
			for i, p := range players {
				for _, voter := range []string{"ana", "bo", "cy"} {
					_, err := svc.RecordVote(ctx, model.Vote{
						ID:      fmt.Sprintf("%s-%s", voter, p),
						Voter:   voter,
						Player:  p,
						Ratings: ratings(1 + i%8),
					})
					So(err, ShouldBeNil)
				}
			}
			So(waitFor(func() bool { return store.Count(ctx) == 24 }), ShouldBeTrue)

			res, err := svc.Balance(ctx, service.BalanceRequest{Players: players, TeamSize: 4, Tolerance: new(float64)})

			Convey("Then the teams should be disjoint halves within the final bound", func() {
				So(err, ShouldBeNil)
				So(res.Found, ShouldBeTrue)
				So(res.TeamA, ShouldHaveLength, 4)
				So(res.TeamB, ShouldHaveLength, 4)
				seen := map[string]bool{}
				for _, p := range append(append([]string(nil), res.TeamA...), res.TeamB...) {
					So(seen[p], ShouldBeFalse)
					seen[p] = true
				}
				So(res.Gap, ShouldBeLessThanOrEqualTo, res.Bound)
				So(res.Candidates, ShouldEqual, 70)
			})

			Convey("Then each voter should see one vote per player", func() {
				list, err := svc.ListVotes(ctx, "ana")
				So(err, ShouldBeNil)
				So(list, ShouldHaveLength, 8)
			})
		})
	})
}
