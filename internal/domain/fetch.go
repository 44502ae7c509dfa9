package domain

// FetchRequest selects one observation hour from the sfctm2 feed.
type FetchRequest struct {
	TM      string // YYYYMMDDHHMI, station local time
	Station int    // 0 for all stations
	Help    bool   // include the column description header
}
