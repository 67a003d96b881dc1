package types_test

import (
	"encoding/json"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/quailscout/standsync/internal/domain/types"
)

func TestValueJSON(t *testing.T) {
	Convey("Given data-point values of every kind", t, func() {
		fields := types.Fields{
			"notes":         types.String("fast cycles"),
			"driver_rating": types.Number(8),
			"broke_down":    types.Bool(false),
			"auto_path":     types.Null(),
			"endgame": types.Object(types.Fields{
				"climbed": types.Bool(true),
				"level":   types.Number(3),
			}),
		}

		Convey("When marshaling and unmarshaling", func() {
			raw, err := json.Marshal(fields)
			So(err, ShouldBeNil)

			var decoded types.Fields
			So(json.Unmarshal(raw, &decoded), ShouldBeNil)

			Convey("Then the round trip preserves every value", func() {
				So(decoded.Equal(fields), ShouldBeTrue)
			})

			Convey("And kinds survive the round trip", func() {
				So(decoded["notes"].Kind(), ShouldEqual, types.KindString)
				So(decoded["driver_rating"].Kind(), ShouldEqual, types.KindNumber)
				So(decoded["broke_down"].Kind(), ShouldEqual, types.KindBool)
				So(decoded["auto_path"].Kind(), ShouldEqual, types.KindNull)
				So(decoded["endgame"].Kind(), ShouldEqual, types.KindObject)
				So(decoded["endgame"].ObjectVal()["level"].NumberVal(), ShouldEqual, 3)
			})
		})

		Convey("When unmarshaling an array value", func() {
			var v types.Value
			err := json.Unmarshal([]byte(`[1,2,3]`), &v)

			Convey("Then it is rejected", func() {
				So(err, ShouldNotBeNil)
			})
		})

		Convey("When unmarshaling malformed JSON", func() {
			var v types.Value
			So(json.Unmarshal([]byte(`{`), &v), ShouldNotBeNil)
		})
	})
}

func TestValueEquality(t *testing.T) {
	Convey("Given values of different kinds", t, func() {
		So(types.String("a").Equal(types.String("a")), ShouldBeTrue)
		So(types.String("a").Equal(types.String("b")), ShouldBeFalse)
		So(types.Number(1).Equal(types.Bool(true)), ShouldBeFalse)
		So(types.Null().Equal(types.Value{}), ShouldBeTrue)

		Convey("Nested objects compare deeply", func() {
			a := types.Object(types.Fields{"x": types.Number(1)})
			b := types.Object(types.Fields{"x": types.Number(1)})
			c := types.Object(types.Fields{"x": types.Number(2)})
			So(a.Equal(b), ShouldBeTrue)
			So(a.Equal(c), ShouldBeFalse)
		})

		Convey("Nil and empty field maps are equal", func() {
			So(types.Fields(nil).Equal(types.Fields{}), ShouldBeTrue)
		})
	})
}

func TestNewView(t *testing.T) {
	Convey("Given a fresh view", t, func() {
		view := types.NewView()

		Convey("Then both maps are non-nil and empty", func() {
			So(view.TeamData, ShouldNotBeNil)
			So(view.TIMData, ShouldNotBeNil)
			So(view.TeamData, ShouldBeEmpty)
			So(view.TIMData, ShouldBeEmpty)
		})

		Convey("And it serializes with the wire field names", func() {
			raw, err := json.Marshal(view)
			So(err, ShouldBeNil)
			So(string(raw), ShouldEqual, `{"teamData":{},"timData":{}}`)
		})
	})
}
