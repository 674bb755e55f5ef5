package loader

// rawFile is the direct YAML decoding target for one project file:
// either the project root's laze.yml (subdirs + builders + contexts +
// modules) or a subdirectory's laze.yml (typically just modules, plus
// further subdirs).
type rawFile struct {
	Subdirs  []string      `yaml:"subdirs"`
	Builders []rawContext  `yaml:"builders"`
	Contexts []rawContext  `yaml:"contexts"`
	Modules  []rawModule   `yaml:"modules"`
}

type rawContext struct {
	Name       string            `yaml:"name"`
	Parent     string            `yaml:"parent"`
	Disable    []string          `yaml:"disable"`
	Select     []string          `yaml:"select"`
	Env        map[string]any    `yaml:"env"`
	EnvEarly   map[string]any    `yaml:"env_early"`
	VarOptions map[string]string `yaml:"var_options"`
	Tasks      map[string]rawTask `yaml:"tasks"`
}

type rawModule struct {
	Name      string   `yaml:"name"`
	Context   string   `yaml:"context"`
	Help      string   `yaml:"help"`
	Selects   []string `yaml:"selects"`
	Imports   []string `yaml:"imports"`
	Provides  []string `yaml:"provides"`
	Conflicts []string `yaml:"conflicts"`
	Disable   []string `yaml:"disable"`
	Blocklist []string `yaml:"blocklist"`
	Allowlist []string `yaml:"allowlist"`
	NotifyAll bool     `yaml:"notify_all"`
	IsBinary  bool      `yaml:"is_binary"`

	Sources         []string            `yaml:"sources"`
	SourcesOptional map[string][]string `yaml:"sources_optional"`

	EnvLocal  map[string]any `yaml:"env_local"`
	EnvExport map[string]any `yaml:"env_export"`
	EnvGlobal map[string]any `yaml:"env_global"`
	EnvEarly  map[string]any `yaml:"env_early"`

	Tasks  map[string]rawTask `yaml:"tasks"`
	Build  *rawBuild          `yaml:"build"`
	Download *rawDownload     `yaml:"download"`
}

type rawTask struct {
	Cmd             []string `yaml:"cmd"`
	Help            string   `yaml:"help"`
	RequiredVars    []string `yaml:"required_vars"`
	RequiredModules []string `yaml:"required_modules"`
	Export          []string `yaml:"export"` // "VAR" or "VAR=content"
	Build           *bool    `yaml:"build"`
	IgnoreCtrlC     bool     `yaml:"ignore_ctrl_c"`
}

type rawBuild struct {
	Cmd []string `yaml:"cmd"`
	Out []string `yaml:"out"`
}

type rawDownload struct {
	Name     string `yaml:"name"`
	Location string `yaml:"location"`
	Revision string `yaml:"revision"`
}
