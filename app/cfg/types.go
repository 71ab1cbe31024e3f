package cfg

type Cfg struct {
	// Data locations
	StorePath  string
	PolicyPath string
	SheetPath  string
	DropDir    string
	DBPath     string

	// Application configuration
	Port              string
	BaseUrl           string
	WorkerCount       int
	SchedulerInterval int
	APIAccessKey      string
	FlexThreshold     float64

	// Application metadata
	Timezone string
	Debug    bool
	Version  string
}
