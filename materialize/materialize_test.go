package materialize

import (
	"reflect"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/urbint/csvstream/schema"
)

type Person struct {
	FirstName string
	Age       int32
}

type Region struct {
	IsActive bool
	Region   string
}

type Aggregate struct {
	key   Region
	count int64
}

func NewAggregate(key Region, count int64) Aggregate {
	return Aggregate{key: key, count: count}
}

func (a Aggregate) Key() Region  { return a.key }
func (a Aggregate) Count() int64 { return a.count }

func TestBuildFeedPlan(t *testing.T) {
	Convey("Build uses member-feeding when the target has settable fields and no constructor", t, func() {
		s := &schema.Schema{Columns: []schema.Column{
			{Name: "FirstName", Index: 0, Type: schema.TypeString},
			{Name: "Age", Index: 1, Type: schema.TypeInt32},
		}}
		plan, err := Build(s, reflect.TypeOf(Person{}), nil, []reflect.Type{reflect.TypeOf(""), reflect.TypeOf(int32(0))})
		So(err, ShouldBeNil)
		So(plan.Kind, ShouldEqual, PlanFeed)

		m := NewMaterializer()
		val, err := m.Materialize(s, reflect.TypeOf(Person{}), []interface{}{"Ada", int32(37)})
		So(err, ShouldBeNil)
		p := val.Interface().(Person)
		So(p.FirstName, ShouldEqual, "Ada")
		So(p.Age, ShouldEqual, int32(37))
	})
}

func TestBuildCtorPlan(t *testing.T) {
	Convey("Build uses a registered constructor for a target with no settable fields", t, func() {
		s := &schema.Schema{Columns: []schema.Column{
			{Name: "IsActive", Index: 0, Type: schema.TypeBool},
			{Name: "Region", Index: 1, Type: schema.TypeString},
			{Name: "Count", Index: 2, Type: schema.TypeInt64},
		}}

		m := NewMaterializer()
		ctor := ConstructorSpec{
			Fn:         reflect.ValueOf(NewAggregate),
			ParamNames: []string{"Key", "Count"},
		}
		m.RegisterConstructor(reflect.TypeOf(Aggregate{}), ctor)

		values := []interface{}{true, "west", int64(12)}
		val, err := m.Materialize(s, reflect.TypeOf(Aggregate{}), values)
		So(err, ShouldBeNil)
		agg := val.Interface().(Aggregate)
		So(agg.Count(), ShouldEqual, int64(12))
		So(agg.Key().IsActive, ShouldBeTrue)
		So(agg.Key().Region, ShouldEqual, "west")
	})
}

func TestMatchColumn(t *testing.T) {
	Convey("matchColumn", t, func() {
		Convey("matches snake_case columns out of position order", func() {
			columnNames := []string{"last_name", "first_name", "age_years"}

			idx, byName := matchColumn("FirstName", 0, columnNames)
			So(byName, ShouldBeTrue)
			So(idx, ShouldEqual, 1)

			idx, byName = matchColumn("AgeYears", 1, columnNames)
			So(byName, ShouldBeTrue)
			So(idx, ShouldEqual, 2)
		})
		Convey("falls back to position when the name has no match", func() {
			idx, byName := matchColumn("Unmatched", 2, []string{"a", "b", "c"})
			So(byName, ShouldBeFalse)
			So(idx, ShouldEqual, 2)
		})
	})
}

func TestScoreParam(t *testing.T) {
	Convey("scoreParam", t, func() {
		Convey("exact type match scores highest", func() {
			So(scoreParam(reflect.TypeOf(int64(0)), reflect.TypeOf(int64(0))), ShouldEqual, scoreExact)
		})
		Convey("numeric widening scores lower than exact", func() {
			So(scoreParam(reflect.TypeOf(int64(0)), reflect.TypeOf(int32(0))), ShouldEqual, scoreWidening)
		})
		Convey("unrelated types are infeasible", func() {
			So(scoreParam(reflect.TypeOf(int64(0)), reflect.TypeOf(struct{}{})), ShouldEqual, scoreInfeasible)
		})
		Convey("a missing column is feasible via zero value", func() {
			So(scoreParam(reflect.TypeOf(int64(0)), nil), ShouldEqual, 0)
		})
	})
}
