package ctdf

type Route struct {
	PrimaryIdentifier string `groups:"basic"`

	ShortName string `groups:"basic" json:",omitempty"`
	LongName  string `groups:"basic" json:",omitempty"`
	URL       string `groups:"detailed" json:",omitempty"`

	Mode    TransitMode `groups:"basic"`
	SubMode string      `groups:"detailed" json:",omitempty"`

	Agency   *Agency   `groups:"detailed" json:",omitempty"`
	Operator *Operator `groups:"detailed" json:",omitempty"`

	DataSource *DataSource `groups:"internal" json:",omitempty"`
}

func (r *Route) Name() string {
	if r.ShortName != "" {
		return r.ShortName
	}

	return r.LongName
}

func (r *Route) OperatorRef() string {
	if r.Operator == nil {
		return ""
	}

	return r.Operator.PrimaryIdentifier
}
