package pipeline

// deltaProperties is the property set shared by the customer tables. The
// bronze and silver layers additionally enable the change data feed so the
// CDC flow can read them.
func deltaProperties(changeDataFeed bool) map[string]string {
	props := map[string]string{
		"demo":                             "api",
		"developer":                        "skyler",
		"delta.autoOptimize.autoCompact":   "true",
		"delta.autoOptimize.optimizeWrite": "true",
		"delta.checkpointPolicy":           "v2",
		"delta.dataSkippingNumIndexedCols": "-1",
		"delta.enableTypeWidening":         "true",
	}
	if changeDataFeed {
		props["delta.enableChangeDataFeed"] = "true"
	}
	return props
}

var autoShuffle = map[string]string{"spark.sql.shuffle.partitions": "auto"}

// Customers declares the pipeline feeding the served customer_details table:
// raw ingest, an SCD2 history via CDC, and a gold table holding only the
// open (current) history rows.
func Customers() *Pipeline {
	return &Pipeline{
		Name: "customer_pipeline",
		Tables: []TableSpec{
			{
				Name:            "raw_customer_details",
				Comment:         "Customer details data including email, IP, and phone number.",
				TableProperties: deltaProperties(true),
				SparkConf:       autoShuffle,
				ClusterByAuto:   true,
				Expectations: []Expectation{
					{Name: "null_id", Constraint: "customer_id IS NOT NULL", Action: ExpectFail},
				},
			},
			{
				Name:            "customer_details",
				Comment:         "Most recent customer details",
				TableProperties: deltaProperties(false),
				SparkConf:       autoShuffle,
				ClusterByAuto:   true,
				Expectations: []Expectation{
					{Name: "valid_email", Constraint: "email IS NOT NULL", Action: ExpectWarn},
				},
				Source:        "customer_details_history",
				Filter:        "__END_AT IS NULL",
				DropColumns:   []string{"__END_AT"},
				RenameColumns: map[string]string{"__START_AT": "modified_ts"},
			},
		},
		StreamingTables: []StreamingTableSpec{
			{TableSpec: TableSpec{
				Name:            "customer_details_history",
				Comment:         "Deduped customer details with CDC",
				TableProperties: deltaProperties(true),
				SparkConf:       autoShuffle,
				ClusterByAuto:   true,
				Expectations: []Expectation{
					{Name: "valid_customer", Constraint: "customer_id IS NOT NULL", Action: ExpectDrop},
				},
			}},
		},
		Flows: []AutoCDCFlow{
			{
				Target:            "customer_details_history",
				Source:            "raw_customer_details",
				Keys:              []string{"customer_id"},
				SequenceBy:        "_created_ts",
				IgnoreNullUpdates: false,
				ExceptColumns:     []string{"_created_ts"},
				SCDType:           "2",
			},
		},
	}
}
