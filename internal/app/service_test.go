package service_test

import (
	"context"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/quailscout/standsync/internal/adapters/repository"
	service "github.com/quailscout/standsync/internal/app"
	"github.com/quailscout/standsync/internal/domain/types"
	"github.com/quailscout/standsync/pkg/logger"
)

func newTestService() *service.Service {
	_ = logger.Init()
	svc := service.New(
		service.WithStore(repository.NewMemoryStore()),
		service.WithDefaultEventKey("2024test"),
	)
	_ = svc.Start(context.Background())
	return svc
}

func sampleView() types.View {
	view := types.NewView()
	view.TeamData["100"] = types.Fields{"notes": types.String("fast")}
	view.TIMData["12"] = map[string]types.Fields{
		"100": {"score": types.Number(5)},
	}
	return view
}

func TestRoundTrip(t *testing.T) {
	Convey("Given a running sync service", t, func() {
		ctx := context.Background()
		svc := newTestService()
		defer svc.Stop()

		Convey("When a view is written and read back", func() {
			So(svc.Update(ctx, "", "alice", sampleView()), ShouldBeNil)

			got, err := svc.Fetch(ctx, "", "alice")
			So(err, ShouldBeNil)

			Convey("Then the view is structurally equal to what was written", func() {
				So(got.TeamData, ShouldHaveLength, 1)
				So(got.TeamData["100"]["notes"].StringVal(), ShouldEqual, "fast")
				So(got.TIMData, ShouldHaveLength, 1)
				So(got.TIMData["12"]["100"]["score"].NumberVal(), ShouldEqual, 5)
			})
		})
	})
}

func TestIdempotence(t *testing.T) {
	Convey("Given a running sync service", t, func() {
		ctx := context.Background()
		svc := newTestService()
		defer svc.Stop()

		Convey("When the same view is written twice", func() {
			view := sampleView()
			So(svc.Update(ctx, "", "alice", view), ShouldBeNil)
			So(svc.Update(ctx, "", "alice", view), ShouldBeNil)

			Convey("Then stored state equals a single write", func() {
				got, err := svc.Fetch(ctx, "", "alice")
				So(err, ShouldBeNil)
				So(got.TeamData, ShouldHaveLength, 1)
				So(got.TIMData, ShouldHaveLength, 1)

				users, err := svc.Users(ctx, "")
				So(err, ShouldBeNil)
				So(users, ShouldResemble, []string{"alice"})
			})
		})
	})
}

func TestIsolationByUsername(t *testing.T) {
	Convey("Given two users writing to the same event", t, func() {
		ctx := context.Background()
		svc := newTestService()
		defer svc.Stop()

		aliceView := types.NewView()
		aliceView.TeamData["100"] = types.Fields{"notes": types.String("alice's take")}
		bobView := types.NewView()
		bobView.TeamData["100"] = types.Fields{"notes": types.String("bob's take")}

		So(svc.Update(ctx, "", "alice", aliceView), ShouldBeNil)
		So(svc.Update(ctx, "", "bob", bobView), ShouldBeNil)

		Convey("Then each fetch reflects only that user's writes", func() {
			got, err := svc.Fetch(ctx, "", "alice")
			So(err, ShouldBeNil)
			So(got.TeamData["100"]["notes"].StringVal(), ShouldEqual, "alice's take")

			got, err = svc.Fetch(ctx, "", "bob")
			So(err, ShouldBeNil)
			So(got.TeamData["100"]["notes"].StringVal(), ShouldEqual, "bob's take")
		})
	})
}

func TestFullReplaceNotMerge(t *testing.T) {
	Convey("Given a team with stored data points", t, func() {
		ctx := context.Background()
		svc := newTestService()
		defer svc.Stop()

		first := types.NewView()
		first.TeamData["100"] = types.Fields{
			"a": types.Number(1),
			"b": types.Number(2),
		}
		So(svc.Update(ctx, "", "alice", first), ShouldBeNil)

		Convey("When a later write carries only one field", func() {
			second := types.NewView()
			second.TeamData["100"] = types.Fields{"a": types.Number(9)}
			So(svc.Update(ctx, "", "alice", second), ShouldBeNil)

			Convey("Then the whole data-point map is replaced", func() {
				got, err := svc.Fetch(ctx, "", "alice")
				So(err, ShouldBeNil)
				So(got.TeamData["100"], ShouldHaveLength, 1)
				So(got.TeamData["100"]["a"].NumberVal(), ShouldEqual, 9)
			})
		})
	})
}

func TestEmptyInput(t *testing.T) {
	Convey("Given an empty view", t, func() {
		ctx := context.Background()
		svc := newTestService()
		defer svc.Stop()

		Convey("When update is called", func() {
			err := svc.Update(ctx, "", "alice", types.NewView())

			Convey("Then it performs no writes and does not error", func() {
				So(err, ShouldBeNil)
				users, err := svc.Users(ctx, "")
				So(err, ShouldBeNil)
				So(users, ShouldBeEmpty)
			})
		})
	})
}

func TestEnumerationCompleteness(t *testing.T) {
	Convey("Given writes from multiple users", t, func() {
		ctx := context.Background()
		svc := newTestService()
		defer svc.Stop()

		So(svc.Update(ctx, "", "alice", sampleView()), ShouldBeNil)
		So(svc.Update(ctx, "", "bob", sampleView()), ShouldBeNil)

		Convey("Then enumeration contains both usernames", func() {
			users, err := svc.Users(ctx, "")
			So(err, ShouldBeNil)
			So(users, ShouldContain, "alice")
			So(users, ShouldContain, "bob")
		})
	})
}

func TestFetchUnknownUser(t *testing.T) {
	Convey("Given a user with no records", t, func() {
		ctx := context.Background()
		svc := newTestService()
		defer svc.Stop()

		Convey("When fetching", func() {
			got, err := svc.Fetch(ctx, "", "nobody")

			Convey("Then the view is empty, not an error", func() {
				So(err, ShouldBeNil)
				So(got.TeamData, ShouldNotBeNil)
				So(got.TIMData, ShouldNotBeNil)
				So(got.TeamData, ShouldBeEmpty)
				So(got.TIMData, ShouldBeEmpty)
			})
		})
	})
}

func TestEventKeyPartitioning(t *testing.T) {
	Convey("Given writes to an explicit and the default event key", t, func() {
		ctx := context.Background()
		svc := newTestService()
		defer svc.Stop()

		So(svc.Update(ctx, "2024other", "alice", sampleView()), ShouldBeNil)

		Convey("Then the default partition stays empty", func() {
			got, err := svc.Fetch(ctx, "", "alice")
			So(err, ShouldBeNil)
			So(got.TeamData, ShouldBeEmpty)
		})

		Convey("And the explicit partition holds the data", func() {
			got, err := svc.Fetch(ctx, "2024other", "alice")
			So(err, ShouldBeNil)
			So(got.TeamData, ShouldHaveLength, 1)
		})

		Convey("And an empty event key resolves to the configured default", func() {
			So(svc.Update(ctx, "", "bob", sampleView()), ShouldBeNil)
			got, err := svc.Fetch(ctx, "2024test", "bob")
			So(err, ShouldBeNil)
			So(got.TeamData, ShouldHaveLength, 1)
		})
	})
}

func TestIdentityFieldsAuthoritative(t *testing.T) {
	Convey("Given a view whose data maps carry identity-named keys", t, func() {
		ctx := context.Background()
		svc := newTestService()
		defer svc.Stop()

		view := types.NewView()
		view.TeamData["100"] = types.Fields{
			"notes":       types.String("fast"),
			"team_number": types.String("999"),
			"username":    types.String("mallory"),
		}
		So(svc.Update(ctx, "", "alice", view), ShouldBeNil)

		Convey("Then structural position and the username parameter win", func() {
			got, err := svc.Fetch(ctx, "", "alice")
			So(err, ShouldBeNil)
			So(got.TeamData, ShouldContainKey, "100")
			So(got.TeamData["100"], ShouldHaveLength, 1)
			So(got.TeamData["100"]["notes"].StringVal(), ShouldEqual, "fast")

			users, err := svc.Users(ctx, "")
			So(err, ShouldBeNil)
			So(users, ShouldResemble, []string{"alice"})
		})
	})
}

func TestGetStats(t *testing.T) {
	Convey("Given a service with stored records", t, func() {
		ctx := context.Background()
		svc := newTestService()
		defer svc.Stop()

		So(svc.Update(ctx, "", "alice", sampleView()), ShouldBeNil)

		Convey("Then stats report counts and the store kind", func() {
			stats := svc.GetStats()
			So(stats["defaultEventKey"], ShouldEqual, "2024test")
			So(stats["store"], ShouldEqual, "memory")
			So(stats["teamRecords"], ShouldEqual, 1)
			So(stats["matchRecords"], ShouldEqual, 1)
			So(stats["users"], ShouldEqual, 1)
		})
	})
}

func TestWorkedExample(t *testing.T) {
	Convey("Given the documented example view", t, func() {
		ctx := context.Background()
		svc := newTestService()
		defer svc.Stop()

		So(svc.Update(ctx, "", "alice", sampleView()), ShouldBeNil)

		Convey("Then fetch returns the same structure", func() {
			got, err := svc.Fetch(ctx, "", "alice")
			So(err, ShouldBeNil)
			So(got.TeamData["100"].Equal(types.Fields{"notes": types.String("fast")}), ShouldBeTrue)
			So(got.TIMData["12"]["100"].Equal(types.Fields{"score": types.Number(5)}), ShouldBeTrue)
		})
	})
}
