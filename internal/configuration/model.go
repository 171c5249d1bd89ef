package configuration

// Validation is a data quality rule applied to a pipeline stage. ValidationRule is a Spark SQL
// expression the data must satisfy. ValidationAction is what happens to records that don't.
type Validation struct {
	ValidationRule   string `json:"validation_rule" validate:"required"`
	ValidationAction string `json:"validation_action" validate:"oneof=LOG DROP FAIL"`
}

// ClusterAutoscale configures autoscaling of a pipeline cluster.
type ClusterAutoscale struct {
	MinWorkers int    `json:"min_workers"`
	MaxWorkers int    `json:"max_workers"`
	Mode       string `json:"mode" validate:"oneof=ENHANCED LEGACY"`
}

// Cluster is the Delta Live Tables cluster definition of a pipeline. Exactly one of
// NumWorkers or Autoscale must be set.
type Cluster struct {
	Label                string                         `json:"label" validate:"oneof=default maintenance"`
	NodeTypeID           string                         `json:"node_type_id" validate:"required"`
	SparkConf            map[string]string              `json:"spark_conf,omitempty"`
	AWSAttributes        map[string]string              `json:"aws_attributes,omitempty"`
	DriverNodeTypeID     string                         `json:"driver_node_type_id,omitempty"`
	SSHPublicKeys        []string                       `json:"ssh_public_keys,omitempty"`
	CustomTags           map[string]string              `json:"custom_tags,omitempty"`
	ClusterLogConf       map[string]map[string]string   `json:"cluster_log_conf,omitempty"`
	SparkEnvVars         map[string]string              `json:"spark_env_vars,omitempty"`
	InitScripts          []map[string]map[string]string `json:"init_scripts,omitempty"`
	InstancePoolID       string                         `json:"instance_pool_id,omitempty"`
	DriverInstancePoolID string                         `json:"driver_instance_pool_id,omitempty"`
	PolicyID             string                         `json:"policy_id,omitempty"`
	NumWorkers           *int                           `json:"num_workers,omitempty"`
	Autoscale            *ClusterAutoscale              `json:"autoscale,omitempty"`
}

// Source is a data source feeding a pipeline.
type Source struct {
	Origin      string       `json:"origin" validate:"required"`
	Datatype    string       `json:"datatype" validate:"required"`
	Target      string       `json:"target" validate:"required"`
	Params      string       `json:"params,omitempty"`
	Validations []Validation `json:"validations,omitempty" validate:"dive"`
}

// Transformation is a single transformation step. It is either a SQL query or one column of a
// column mapping, typically defined in a CSV sheet.
type Transformation struct {
	Origin            string       `json:"origin" validate:"required"`
	Target            string       `json:"target" validate:"required"`
	ColumnOrder       *int         `json:"column_order,omitempty" validate:"omitempty,min=1"`
	SourceColumnName  string       `json:"source_column_name,omitempty"`
	SourceColumnType  string       `json:"source_column_type,omitempty" validate:"omitempty,oneof=string int double date timestamp boolean struct array map"`
	DestColumnName    string       `json:"dest_column_name,omitempty"`
	DestColumnType    string       `json:"dest_column_type,omitempty" validate:"omitempty,oneof=string int double date timestamp boolean struct array map"`
	TransformFunction string       `json:"transform_function,omitempty"`
	SQLQuery          string       `json:"sql_query,omitempty"`
	DefaultValue      string       `json:"default_value,omitempty"`
	Validations       []Validation `json:"validations,omitempty" validate:"dive"`
}

// Destination is a Delta table written by a pipeline.
type Destination struct {
	Origin      string       `json:"origin" validate:"required"`
	Target      string       `json:"target" validate:"required"`
	Mode        string       `json:"mode" validate:"oneof=append upsert"`
	Path        string       `json:"path,omitempty"`
	Keys        []string     `json:"keys,omitempty" validate:"dive,required"`
	SequenceBy  string       `json:"sequence_by,omitempty"`
	Validations []Validation `json:"validations,omitempty" validate:"dive"`
}

// Configuration holds the stages of a pipeline.
type Configuration struct {
	Clusters        []Cluster        `json:"clusters,omitempty" validate:"max=1,dive"`
	Sources         []Source         `json:"sources,omitempty" validate:"dive"`
	Transformations []Transformation `json:"transformations,omitempty" validate:"dive"`
	Destinations    []Destination    `json:"destinations,omitempty" validate:"dive"`
}

// Stage names as they appear in configuration files and metadata table names.
const (
	StageSources         = "sources"
	StageTransformations = "transformations"
	StageDestinations    = "destinations"
)

// Stages lists every pipeline stage in the order they are written to metadata tables.
var Stages = []string{StageSources, StageTransformations, StageDestinations}

// Targets returns the target object of every stage element that creates a table or view.
// Column mapping transformations share their target and are not included.
func (c Configuration) Targets() []string {
	var targets []string
	for _, s := range c.Sources {
		targets = append(targets, s.Target)
	}
	for _, t := range c.Transformations {
		if t.SQLQuery != "" {
			targets = append(targets, t.Target)
		}
	}
	for _, d := range c.Destinations {
		targets = append(targets, d.Target)
	}
	return targets
}
