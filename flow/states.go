package flow

// State is the conversation's position in the ad creation flow.
type State int

const (
	StateNone State = iota
	StateLangSelect
	StateCategorySelect
	StateCarMakeModel
	StateCarYear
	StateCarMileage
	StateHousePropertyType
	StateHouseRooms
	StateHouseArea
	StateHouseYearBuilt
	StateAnimalType
	StateAnimalBreed
	StateAnimalAge
	StateAnimalSex
	StateOtherItemName
	StatePrice
	StateLocation
	StateDescription
	StateMedia
	StatePreview
	StateEditChoice
	StateChangeLang
)

func (s State) String() string {
	switch s {
	case StateNone:
		return "None"
	case StateLangSelect:
		return "LangSelect"
	case StateCategorySelect:
		return "CategorySelect"
	case StateCarMakeModel:
		return "CarMakeModel"
	case StateCarYear:
		return "CarYear"
	case StateCarMileage:
		return "CarMileage"
	case StateHousePropertyType:
		return "HousePropertyType"
	case StateHouseRooms:
		return "HouseRooms"
	case StateHouseArea:
		return "HouseArea"
	case StateHouseYearBuilt:
		return "HouseYearBuilt"
	case StateAnimalType:
		return "AnimalType"
	case StateAnimalBreed:
		return "AnimalBreed"
	case StateAnimalAge:
		return "AnimalAge"
	case StateAnimalSex:
		return "AnimalSex"
	case StateOtherItemName:
		return "OtherItemName"
	case StatePrice:
		return "Price"
	case StateLocation:
		return "Location"
	case StateDescription:
		return "Description"
	case StateMedia:
		return "Media"
	case StatePreview:
		return "Preview"
	case StateEditChoice:
		return "EditChoice"
	case StateChangeLang:
		return "ChangeLang"
	default:
		return "Unknown"
	}
}

// InputKind is what a collection step accepts from the user.
type InputKind int

const (
	InputText InputKind = iota
	InputChoice
	InputMedia
)

// Choice is one option of a choice step. Key is the canonical value
// stored in the session; LabelKey localizes the button label.
type Choice struct {
	Key      string
	LabelKey string
}

// Step declares how one collection state behaves: what input it accepts,
// which field it writes, and where the flow goes after a value or a skip
// is accepted. Rejected input keeps the state.
type Step struct {
	Field     FieldID
	Input     InputKind
	Optional  bool
	PromptKey string
	Choices   []Choice
	Next      State
}

var propertyTypeChoices = []Choice{
	{Key: "apartment", LabelKey: "property_type_apartment"},
	{Key: "house", LabelKey: "property_type_house"},
	{Key: "land", LabelKey: "property_type_land"},
	{Key: "commercial", LabelKey: "property_type_commercial"},
	{Key: "other", LabelKey: "property_type_other"},
}

var animalSexChoices = []Choice{
	{Key: "male", LabelKey: "animal_sex_male"},
	{Key: "female", LabelKey: "animal_sex_female"},
}

// steps is the flow graph: every data collection state with its input
// contract and outgoing edge. The preview, edit and language states are
// dispatched separately in the engine.
var steps = map[State]Step{
	StateCarMakeModel: {Field: FieldCarMakeModel, Input: InputText, PromptKey: "ask_car_make_model", Next: StateCarYear},
	StateCarYear:      {Field: FieldCarYear, Input: InputText, Optional: true, PromptKey: "ask_car_year", Next: StateCarMileage},
	StateCarMileage:   {Field: FieldCarMileage, Input: InputText, PromptKey: "ask_car_mileage", Next: StatePrice},

	StateHousePropertyType: {Field: FieldHousePropertyType, Input: InputChoice, Choices: propertyTypeChoices, PromptKey: "ask_house_property_type", Next: StateHouseRooms},
	StateHouseRooms:        {Field: FieldHouseRooms, Input: InputText, Optional: true, PromptKey: "ask_house_rooms", Next: StateHouseArea},
	StateHouseArea:         {Field: FieldHouseArea, Input: InputText, Optional: true, PromptKey: "ask_house_area", Next: StateHouseYearBuilt},
	StateHouseYearBuilt:    {Field: FieldHouseYearBuilt, Input: InputText, Optional: true, PromptKey: "ask_house_year_built", Next: StatePrice},

	StateAnimalType:  {Field: FieldAnimalType, Input: InputText, PromptKey: "ask_animal_type", Next: StateAnimalBreed},
	StateAnimalBreed: {Field: FieldAnimalBreed, Input: InputText, Optional: true, PromptKey: "ask_animal_breed", Next: StateAnimalAge},
	StateAnimalAge:   {Field: FieldAnimalAge, Input: InputText, PromptKey: "ask_animal_age", Next: StateAnimalSex},
	StateAnimalSex:   {Field: FieldAnimalSex, Input: InputChoice, Optional: true, Choices: animalSexChoices, PromptKey: "ask_animal_sex", Next: StatePrice},

	StateOtherItemName: {Field: FieldOtherItemName, Input: InputText, PromptKey: "ask_other_item_name", Next: StatePrice},

	StatePrice:       {Field: FieldPrice, Input: InputText, PromptKey: "ask_price", Next: StateLocation},
	StateLocation:    {Field: FieldLocation, Input: InputText, PromptKey: "ask_location", Next: StateDescription},
	StateDescription: {Field: FieldDescription, Input: InputText, Optional: true, PromptKey: "ask_description", Next: StateMedia},
	StateMedia:       {Field: FieldMedia, Input: InputMedia, PromptKey: "ask_media", Next: StatePreview},
}

// branchStart maps a chosen category to the first state of its branch.
var branchStart = map[Category]State{
	CategoryCars:    StateCarMakeModel,
	CategoryHouses:  StateHousePropertyType,
	CategoryAnimals: StateAnimalType,
	CategoryOther:   StateOtherItemName,
}

var categoryChosenKey = map[Category]string{
	CategoryCars:    "category_chosen_cars",
	CategoryHouses:  "category_chosen_houses",
	CategoryAnimals: "category_chosen_animals",
	CategoryOther:   "category_chosen_other",
}

// collectState is the reverse index of steps: which state collects a
// given field. The edit detour uses it to jump back into the flow.
var collectState = map[FieldID]State{}

func init() {
	for st, sp := range steps {
		collectState[sp.Field] = st
	}
}

func validChoice(sp Step, key string) bool {
	for _, c := range sp.Choices {
		if c.Key == key {
			return true
		}
	}
	return false
}
