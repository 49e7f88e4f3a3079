package ldcore

// XSD datatype URIs, grounded on the XML Schema built-in datatype vocabulary
// (the same set the knakk/rdf reference package ships as package vars).
// These are the absolute URIs a Data value's datatype is most commonly set
// to, and what the Validator's datatype rule compares against for Data
// leaves.
const (
	XSDString   = "http://www.w3.org/2001/XMLSchema#string"
	XSDBoolean  = "http://www.w3.org/2001/XMLSchema#boolean"
	XSDDecimal  = "http://www.w3.org/2001/XMLSchema#decimal"
	XSDInteger  = "http://www.w3.org/2001/XMLSchema#integer"
	XSDDouble   = "http://www.w3.org/2001/XMLSchema#double"
	XSDFloat    = "http://www.w3.org/2001/XMLSchema#float"
	XSDDate     = "http://www.w3.org/2001/XMLSchema#date"
	XSDTime     = "http://www.w3.org/2001/XMLSchema#time"
	XSDDateTime = "http://www.w3.org/2001/XMLSchema#dateTime"

	XSDYear              = "http://www.w3.org/2001/XMLSchema#gYear"
	XSDMonth             = "http://www.w3.org/2001/XMLSchema#gMonth"
	XSDDay               = "http://www.w3.org/2001/XMLSchema#gDay"
	XSDYearMonth         = "http://www.w3.org/2001/XMLSchema#gYearMonth"
	XSDDuration          = "http://www.w3.org/2001/XMLSchema#duration"
	XSDYearMonthDuration = "http://www.w3.org/2001/XMLSchema#yearMonthDuration"
	XSDDayTimeDuration   = "http://www.w3.org/2001/XMLSchema#dayTimeDuration"

	RDFLangString = "http://www.w3.org/1999/02/22-rdf-syntax-ns#langString"
)
