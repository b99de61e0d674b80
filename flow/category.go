package flow

// Category is an ad category chosen at the start of the flow. Each
// category has its own sequence of questions.
type Category string

const (
	CategoryCars    Category = "cars"
	CategoryHouses  Category = "houses"
	CategoryAnimals Category = "animals"
	CategoryOther   Category = "other"
)

// Categories lists the selectable categories in display order.
func Categories() []Category {
	return []Category{CategoryCars, CategoryHouses, CategoryAnimals, CategoryOther}
}

// FieldID names one collectable piece of ad data.
type FieldID string

const (
	FieldCarMakeModel      FieldID = "car_make_model"
	FieldCarYear           FieldID = "car_year"
	FieldCarMileage        FieldID = "car_mileage"
	FieldHousePropertyType FieldID = "house_property_type"
	FieldHouseRooms        FieldID = "house_rooms"
	FieldHouseArea         FieldID = "house_area"
	FieldHouseYearBuilt    FieldID = "house_year_built"
	FieldAnimalType        FieldID = "animal_type"
	FieldAnimalBreed       FieldID = "animal_breed"
	FieldAnimalAge         FieldID = "animal_age"
	FieldAnimalSex         FieldID = "animal_sex"
	FieldOtherItemName     FieldID = "other_item_name"
	FieldPrice             FieldID = "price"
	FieldLocation          FieldID = "location"
	FieldDescription       FieldID = "description"
	FieldMedia             FieldID = "media"
)

// CategoryFields holds the answers whose schema depends on the chosen
// category. Implementations are plain structs so that code working with
// a known category gets compile-time checked field access, while the
// engine goes through Get/Set by FieldID.
type CategoryFields interface {
	Category() Category
	Get(f FieldID) (Value, bool)
	Set(f FieldID, v Value) bool
	// FieldIDs returns the schema's fields in collection order.
	FieldIDs() []FieldID
}

// NewCategoryFields returns an empty field set for the category, or nil
// for an unknown one.
func NewCategoryFields(c Category) CategoryFields {
	switch c {
	case CategoryCars:
		return &CarFields{}
	case CategoryHouses:
		return &HouseFields{}
	case CategoryAnimals:
		return &AnimalFields{}
	case CategoryOther:
		return &OtherFields{}
	}
	return nil
}

type CarFields struct {
	MakeModel Value
	Year      Value
	Mileage   Value
}

func (*CarFields) Category() Category { return CategoryCars }

func (f *CarFields) Get(id FieldID) (Value, bool) {
	switch id {
	case FieldCarMakeModel:
		return f.MakeModel, true
	case FieldCarYear:
		return f.Year, true
	case FieldCarMileage:
		return f.Mileage, true
	}
	return Value{}, false
}

func (f *CarFields) Set(id FieldID, v Value) bool {
	switch id {
	case FieldCarMakeModel:
		f.MakeModel = v
	case FieldCarYear:
		f.Year = v
	case FieldCarMileage:
		f.Mileage = v
	default:
		return false
	}
	return true
}

func (*CarFields) FieldIDs() []FieldID {
	return []FieldID{FieldCarMakeModel, FieldCarYear, FieldCarMileage}
}

type HouseFields struct {
	PropertyType Value
	Rooms        Value
	Area         Value
	YearBuilt    Value
}

func (*HouseFields) Category() Category { return CategoryHouses }

func (f *HouseFields) Get(id FieldID) (Value, bool) {
	switch id {
	case FieldHousePropertyType:
		return f.PropertyType, true
	case FieldHouseRooms:
		return f.Rooms, true
	case FieldHouseArea:
		return f.Area, true
	case FieldHouseYearBuilt:
		return f.YearBuilt, true
	}
	return Value{}, false
}

func (f *HouseFields) Set(id FieldID, v Value) bool {
	switch id {
	case FieldHousePropertyType:
		f.PropertyType = v
	case FieldHouseRooms:
		f.Rooms = v
	case FieldHouseArea:
		f.Area = v
	case FieldHouseYearBuilt:
		f.YearBuilt = v
	default:
		return false
	}
	return true
}

func (*HouseFields) FieldIDs() []FieldID {
	return []FieldID{FieldHousePropertyType, FieldHouseRooms, FieldHouseArea, FieldHouseYearBuilt}
}

type AnimalFields struct {
	Type  Value
	Breed Value
	Age   Value
	Sex   Value
}

func (*AnimalFields) Category() Category { return CategoryAnimals }

func (f *AnimalFields) Get(id FieldID) (Value, bool) {
	switch id {
	case FieldAnimalType:
		return f.Type, true
	case FieldAnimalBreed:
		return f.Breed, true
	case FieldAnimalAge:
		return f.Age, true
	case FieldAnimalSex:
		return f.Sex, true
	}
	return Value{}, false
}

func (f *AnimalFields) Set(id FieldID, v Value) bool {
	switch id {
	case FieldAnimalType:
		f.Type = v
	case FieldAnimalBreed:
		f.Breed = v
	case FieldAnimalAge:
		f.Age = v
	case FieldAnimalSex:
		f.Sex = v
	default:
		return false
	}
	return true
}

func (*AnimalFields) FieldIDs() []FieldID {
	return []FieldID{FieldAnimalType, FieldAnimalBreed, FieldAnimalAge, FieldAnimalSex}
}

type OtherFields struct {
	ItemName Value
}

func (*OtherFields) Category() Category { return CategoryOther }

func (f *OtherFields) Get(id FieldID) (Value, bool) {
	if id == FieldOtherItemName {
		return f.ItemName, true
	}
	return Value{}, false
}

func (f *OtherFields) Set(id FieldID, v Value) bool {
	if id == FieldOtherItemName {
		f.ItemName = v
		return true
	}
	return false
}

func (*OtherFields) FieldIDs() []FieldID {
	return []FieldID{FieldOtherItemName}
}
