package mongo

const (
	store    = "bpoc"
	runTable = "run"
)

var indexData = []IndexData{
	newIndexData(runTable, "ID", true)}
