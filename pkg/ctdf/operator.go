package ctdf

type Operator struct {
	PrimaryIdentifier string `groups:"basic"`
	PrimaryName       string `groups:"basic"`

	Website     string `groups:"detailed" json:",omitempty"`
	PhoneNumber string `groups:"detailed" json:",omitempty"`
}

type Agency struct {
	PrimaryIdentifier string `groups:"basic"`
	PrimaryName       string `groups:"basic"`

	Website  string `groups:"detailed" json:",omitempty"`
	Timezone string `groups:"detailed"`

	// Set on agencies generated for routes that only exist in realtime data
	Synthetic bool `groups:"internal"`
}
