package repository_test

import (
	"context"
	"path/filepath"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/quailscout/standsync/internal/adapters/repository"
	"github.com/quailscout/standsync/internal/domain/model"
	"github.com/quailscout/standsync/internal/domain/types"
)

func openTestStore(t *testing.T) *repository.SQLiteStore {
	t.Helper()
	store, err := repository.Open(filepath.Join(t.TempDir(), "standsync.db"))
	if err != nil {
		t.Fatalf("open sqlite store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSQLiteOpen(t *testing.T) {
	Convey("Given a SQLite store path", t, func() {
		Convey("When opening with an empty path", func() {
			_, err := repository.Open("  ")

			Convey("Then it fails with ErrInvalidPath", func() {
				So(err, ShouldEqual, repository.ErrInvalidPath)
			})
		})

		Convey("When opening the same database twice", func() {
			dir := t.TempDir()
			path := filepath.Join(dir, "standsync.db")

			first, err := repository.Open(path)
			So(err, ShouldBeNil)
			So(first.Close(), ShouldBeNil)

			Convey("Then migrations are applied at most once", func() {
				second, err := repository.Open(path)
				So(err, ShouldBeNil)
				So(second.Close(), ShouldBeNil)
			})
		})
	})
}

func TestSQLiteUpserts(t *testing.T) {
	Convey("Given an open SQLite store", t, func() {
		ctx := context.Background()
		store := openTestStore(t)

		Convey("When writing a batch and replacing one record", func() {
			first := []model.TeamNote{
				{Team: "100", Username: "alice", Data: types.Fields{
					"a": types.Number(1),
					"b": types.Number(2),
				}},
				{Team: "200", Username: "alice", Data: types.Fields{
					"notes": types.String("slow"),
				}},
			}
			So(store.PutTeamNotes(ctx, "ev", first), ShouldBeNil)

			second := []model.TeamNote{
				{Team: "100", Username: "alice", Data: types.Fields{"a": types.Number(9)}},
			}
			So(store.PutTeamNotes(ctx, "ev", second), ShouldBeNil)

			Convey("Then the touched record is replaced wholesale and the rest survive", func() {
				notes, err := store.TeamNotes(ctx, "ev", "alice")
				So(err, ShouldBeNil)
				So(notes, ShouldHaveLength, 2)

				byTeam := map[string]types.Fields{}
				for _, n := range notes {
					byTeam[n.Team] = n.Data
				}
				So(byTeam["100"], ShouldHaveLength, 1)
				So(byTeam["100"]["a"].NumberVal(), ShouldEqual, 9)
				So(byTeam["200"]["notes"].StringVal(), ShouldEqual, "slow")
			})
		})

		Convey("When writing match notes with nested data points", func() {
			notes := []model.MatchNote{
				{Match: "12", Team: "100", Username: "alice", Data: types.Fields{
					"score": types.Number(5),
					"endgame": types.Object(types.Fields{
						"climbed": types.Bool(true),
					}),
				}},
			}
			So(store.PutMatchNotes(ctx, "ev", notes), ShouldBeNil)

			Convey("Then the JSON column round-trips the tagged values", func() {
				got, err := store.MatchNotes(ctx, "ev", "alice")
				So(err, ShouldBeNil)
				So(got, ShouldHaveLength, 1)
				So(got[0].Data["score"].NumberVal(), ShouldEqual, 5)
				So(got[0].Data["endgame"].Kind(), ShouldEqual, types.KindObject)
				So(got[0].Data["endgame"].ObjectVal()["climbed"].BoolVal(), ShouldBeTrue)
			})
		})

		Convey("When issuing empty batches", func() {
			So(store.PutTeamNotes(ctx, "ev", nil), ShouldBeNil)
			So(store.PutMatchNotes(ctx, "ev", nil), ShouldBeNil)
		})
	})
}

func TestSQLiteUsernames(t *testing.T) {
	Convey("Given records across families and partitions", t, func() {
		ctx := context.Background()
		store := openTestStore(t)

		So(store.PutTeamNotes(ctx, "ev1", []model.TeamNote{
			{Team: "100", Username: "alice", Data: types.Fields{}},
		}), ShouldBeNil)
		So(store.PutMatchNotes(ctx, "ev1", []model.MatchNote{
			{Match: "1", Team: "100", Username: "alice", Data: types.Fields{}},
			{Match: "1", Team: "200", Username: "bob", Data: types.Fields{}},
		}), ShouldBeNil)
		So(store.PutTeamNotes(ctx, "ev2", []model.TeamNote{
			{Team: "100", Username: "carol", Data: types.Fields{}},
		}), ShouldBeNil)

		Convey("Then enumeration deduplicates across both families", func() {
			users, err := store.ListUsernames(ctx, "ev1")
			So(err, ShouldBeNil)
			So(users, ShouldHaveLength, 2)
			So(users, ShouldContain, "alice")
			So(users, ShouldContain, "bob")
		})

		Convey("And enumeration is scoped to the partition", func() {
			users, err := store.ListUsernames(ctx, "ev2")
			So(err, ShouldBeNil)
			So(users, ShouldResemble, []string{"carol"})
		})

		Convey("And record counts span all partitions", func() {
			teams, matches, err := store.CountRecords(ctx)
			So(err, ShouldBeNil)
			So(teams, ShouldEqual, 2)
			So(matches, ShouldEqual, 2)
		})
	})
}

func TestSQLitePersistence(t *testing.T) {
	Convey("Given data written through one handle", t, func() {
		ctx := context.Background()
		path := filepath.Join(t.TempDir(), "standsync.db")

		store, err := repository.Open(path)
		So(err, ShouldBeNil)
		So(store.PutTeamNotes(ctx, "ev", []model.TeamNote{
			{Team: "100", Username: "alice", Data: types.Fields{"notes": types.String("fast")}},
		}), ShouldBeNil)
		So(store.Close(), ShouldBeNil)

		Convey("When reopening the database", func() {
			reopened, err := repository.Open(path)
			So(err, ShouldBeNil)
			defer func() { _ = reopened.Close() }()

			Convey("Then the data survives", func() {
				notes, err := reopened.TeamNotes(ctx, "ev", "alice")
				So(err, ShouldBeNil)
				So(notes, ShouldHaveLength, 1)
				So(notes[0].Data["notes"].StringVal(), ShouldEqual, "fast")
			})
		})
	})
}
