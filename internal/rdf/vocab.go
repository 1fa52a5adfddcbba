package rdf

// Well-known namespaces.
const (
	RDFNamespace  = "http://www.w3.org/1999/02/22-rdf-syntax-ns#"
	RDFSNamespace = "http://www.w3.org/2000/01/rdf-schema#"
	XSDNamespace  = "http://www.w3.org/2001/XMLSchema#"
	OWLNamespace  = "http://www.w3.org/2002/07/owl#"
	XMLNamespace  = "http://www.w3.org/XML/1998/namespace"
)

// RDF vocabulary terms used by the parsers.
const (
	RDFType       = RDFNamespace + "type"
	RDFFirst      = RDFNamespace + "first"
	RDFRest       = RDFNamespace + "rest"
	RDFNil        = RDFNamespace + "nil"
	RDFLangString = RDFNamespace + "langString"
	RDFXMLLiteral = RDFNamespace + "XMLLiteral"
)

// XSD datatypes.
const (
	XSDString  = XSDNamespace + "string"
	XSDBoolean = XSDNamespace + "boolean"
	XSDInteger = XSDNamespace + "integer"
	XSDDecimal = XSDNamespace + "decimal"
	XSDDouble  = XSDNamespace + "double"
	XSDFloat   = XSDNamespace + "float"
)

// NumericDatatypes lists the XSD datatypes compared by numeric value.
var NumericDatatypes = []string{
	XSDInteger,
	XSDDecimal,
	XSDDouble,
	XSDFloat,
	XSDNamespace + "int",
	XSDNamespace + "long",
	XSDNamespace + "short",
	XSDNamespace + "byte",
	XSDNamespace + "nonNegativeInteger",
	XSDNamespace + "nonPositiveInteger",
	XSDNamespace + "positiveInteger",
	XSDNamespace + "negativeInteger",
	XSDNamespace + "unsignedInt",
	XSDNamespace + "unsignedLong",
	XSDNamespace + "unsignedShort",
	XSDNamespace + "unsignedByte",
}

// IsNumericDatatype reports whether dt is listed in NumericDatatypes.
func IsNumericDatatype(dt string) bool {
	for _, n := range NumericDatatypes {
		if n == dt {
			return true
		}
	}
	return false
}
