package scenario

// HotspotEffect tags what a hotspot does to narrative state when triggered.
type HotspotEffect string

const (
	EffectWitheredPetal HotspotEffect = "withered_petal" // counts toward the hidden branch unlock
	EffectNormalPetal   HotspotEffect = "normal_petal"   // flavor only
	EffectCollectPetal  HotspotEffect = "collect_petal"  // adds an item to inventory
)

// DefaultCollectItem is the item a collect hotspot yields when it names none.
const DefaultCollectItem = "cherry-petal"

// Hotspot is a clickable object placed over a scene background. Each hotspot
// can be triggered at most once per scene visit.
type Hotspot struct {
	ID      string        `json:"id" yaml:"id"`
	X       int           `json:"x" yaml:"x"`           // Percent of viewport width
	Y       int           `json:"y" yaml:"y"`           // Percent of viewport height
	Width   int           `json:"width" yaml:"width"`   // Pixels
	Height  int           `json:"height" yaml:"height"` // Pixels
	Icon    string        `json:"icon,omitempty" yaml:"icon,omitempty"`
	Tooltip string        `json:"tooltip,omitempty" yaml:"tooltip,omitempty"`
	Effect  HotspotEffect `json:"effect" yaml:"effect"`
	Message string        `json:"message,omitempty" yaml:"message,omitempty"` // Transient message shown when triggered
	Item    string        `json:"item,omitempty" yaml:"item,omitempty"`       // collect_petal only
}

// CollectedItem returns the inventory item a collect hotspot yields.
func (h Hotspot) CollectedItem() string {
	if h.Item != "" {
		return h.Item
	}
	return DefaultCollectItem
}
