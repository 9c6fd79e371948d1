package domain

// Persona is the locked identity merged into every generated prompt.
type Persona struct {
	Version string   `yaml:"version" json:"version"`
	Age     int      `yaml:"age" json:"age"`
	Subject string   `yaml:"subject" json:"subject"`
	Hair    string   `yaml:"hair" json:"hair"`
	Eyes    string   `yaml:"eyes" json:"eyes"`
	Body    string   `yaml:"body" json:"body"`
	Skin    string   `yaml:"skin" json:"skin"`
	Do      []string `yaml:"do" json:"do"`
	Dont    []string `yaml:"dont" json:"dont"`
}
