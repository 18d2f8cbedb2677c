package glang

import "fmt"

type Config map[string]*cfgVal

// NewConfig creates a new configuration object primed with all the
// default values expected by the compilation pipeline
func NewConfig() *Config {
	m := make(Config)
	m.SetBool("emit.entrypoint", true)
	m.SetBool("import.core", true)
	m.SetString("import.core_path", DefaultCorePath)
	m.SetBool("debug.print_tokens", false)
	m.SetBool("debug.print_ast", false)
	return &m
}

type cfgValType int

const (
	cfgValType_Undefined cfgValType = iota
	cfgValType_Bool
	cfgValType_String
)

func (vt cfgValType) String() string {
	return map[cfgValType]string{
		cfgValType_Undefined: "undefined",
		cfgValType_Bool:      "bool",
		cfgValType_String:    "string",
	}[vt]
}

type cfgVal struct {
	typ      cfgValType
	asBool   bool
	asString string
}

// assignType is mostly for preventing programming errors
func (v *cfgVal) assignType(vt cfgValType) {
	if v.typ != vt && v.typ != cfgValType_Undefined {
		panic(fmt.Sprintf("Can't assign `%s` to type `%s`", vt, v.typ))
	}
	v.typ = vt
}

func (v *cfgVal) checkType(vt cfgValType) {
	if v.typ != vt {
		panic(fmt.Sprintf("Can't retrieve `%s` from `%s` variable", vt, v.typ))
	}
}

func (c *Config) SetBool(path string, value bool) {
	v := c.val(path)
	v.assignType(cfgValType_Bool)
	v.asBool = value
}

func (c *Config) GetBool(path string) bool {
	v := c.val(path)
	v.checkType(cfgValType_Bool)
	return v.asBool
}

func (c *Config) SetString(path string, value string) {
	v := c.val(path)
	v.assignType(cfgValType_String)
	v.asString = value
}

func (c *Config) GetString(path string) string {
	v := c.val(path)
	v.checkType(cfgValType_String)
	return v.asString
}

func (c *Config) val(path string) *cfgVal {
	if v, ok := (*c)[path]; ok {
		return v
	}
	v := &cfgVal{}
	(*c)[path] = v
	return v
}
