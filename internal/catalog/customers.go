package catalog

// customers is the allowlist for the customer_details serving table. The
// keyset orders newest-modified first and breaks ties on the unique
// customer_id, so the ordering is total and pages never overlap.
var customers = New(
	[]Column{
		{Name: "customer_id", Expr: "customer_id", Type: TypeBigint},
		{Name: "name", Expr: "name", Type: TypeString},
		{Name: "email", Expr: "email", Type: TypeString},
		{Name: "ip_addr", Expr: "ip_addr", Type: TypeString},
		{Name: "phone", Expr: "phone", Type: TypeString},
		{Name: "modified_ts", Expr: "modified_ts", Type: TypeTimestamp},
	},
	[]string{"customer_id", "name", "email"},
	[]KeysetPart{
		{Column: "modified_ts", Desc: true},
		{Column: "customer_id", Desc: true},
	},
)

// Customers returns the catalog for the customer_details table.
func Customers() *Catalog {
	return customers
}
