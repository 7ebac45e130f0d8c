package provider

import (
	"context"
	"fmt"

	"github.com/hashicorp/terraform-plugin-framework/datasource"
	"github.com/hashicorp/terraform-plugin-framework/datasource/schema"
	"github.com/hashicorp/terraform-plugin-framework/types"
	"github.com/zhmcclient/zhmc-go/pkg/zhmc"
)

// Ensure the implementation satisfies the datasource.DataSource interface.
var _ datasource.DataSource = &CPCsDataSource{}

// NewCPCsDataSource is a helper function to simplify the provider implementation.
func NewCPCsDataSource() datasource.DataSource {
	return &CPCsDataSource{}
}

// CPCsDataSource is the data source implementation.
type CPCsDataSource struct {
	client *zhmc.Client
}

// CPCsDataSourceModel describes the data source data model.
type CPCsDataSourceModel struct {
	NameFilter types.String `tfsdk:"name_filter"`
	CPCs       []CPCModel   `tfsdk:"cpcs"`
	ID         types.String `tfsdk:"id"`
}

// CPCModel describes a single managed CPC.
type CPCModel struct {
	Name       types.String `tfsdk:"name"`
	ObjectURI  types.String `tfsdk:"object_uri"`
	Status     types.String `tfsdk:"status"`
	DPMEnabled types.Bool   `tfsdk:"dpm_enabled"`
	SEVersion  types.String `tfsdk:"se_version"`
}

// Metadata returns the data source type name.
func (d *CPCsDataSource) Metadata(_ context.Context, req datasource.MetadataRequest, resp *datasource.MetadataResponse) {
	resp.TypeName = req.ProviderTypeName + "_cpcs"
}

// Schema defines the schema for the data source.
func (d *CPCsDataSource) Schema(_ context.Context, _ datasource.SchemaRequest, resp *datasource.SchemaResponse) {
	resp.Schema = schema.Schema{
		MarkdownDescription: "Fetches the CPCs managed by the HMC.",
		Attributes: map[string]schema.Attribute{
			"id": schema.StringAttribute{
				MarkdownDescription: "Placeholder identifier (always set to 'cpcs')",
				Computed:            true,
			},
			"name_filter": schema.StringAttribute{
				MarkdownDescription: "Regular expression to filter the CPCs by name",
				Optional:            true,
			},
			"cpcs": schema.ListNestedAttribute{
				MarkdownDescription: "List of managed CPCs",
				Computed:            true,
				NestedObject: schema.NestedAttributeObject{
					Attributes: map[string]schema.Attribute{
						"name": schema.StringAttribute{
							MarkdownDescription: "Name of the CPC",
							Computed:            true,
						},
						"object_uri": schema.StringAttribute{
							MarkdownDescription: "Canonical URI of the CPC object",
							Computed:            true,
						},
						"status": schema.StringAttribute{
							MarkdownDescription: "Status of the CPC",
							Computed:            true,
						},
						"dpm_enabled": schema.BoolAttribute{
							MarkdownDescription: "Whether the CPC is in DPM mode",
							Computed:            true,
						},
						"se_version": schema.StringAttribute{
							MarkdownDescription: "Version of the Support Element of the CPC",
							Computed:            true,
						},
					},
				},
			},
		},
	}
}

// Configure adds the provider configured client to the data source.
func (d *CPCsDataSource) Configure(_ context.Context, req datasource.ConfigureRequest, resp *datasource.ConfigureResponse) {
	if req.ProviderData == nil {
		return
	}

	client, ok := req.ProviderData.(*zhmc.Client)
	if !ok {
		resp.Diagnostics.AddError(
			"unexpected data source configure type",
			fmt.Sprintf("expected *zhmc.Client, got: %T. please report this issue to the provider developers.", req.ProviderData),
		)
		return
	}

	d.client = client
}

// Read refreshes the Terraform state with the latest data.
func (d *CPCsDataSource) Read(ctx context.Context, req datasource.ReadRequest, resp *datasource.ReadResponse) {
	var config CPCsDataSourceModel

	resp.Diagnostics.Append(req.Config.Get(ctx, &config)...)
	if resp.Diagnostics.HasError() {
		return
	}

	cpcs, err := d.client.CPC.List(ctx, zhmc.ListCPCOptions{
		Name: config.NameFilter.ValueString(),
	})
	if err != nil {
		resp.Diagnostics.AddError(
			"error listing cpcs",
			fmt.Sprintf("could not list CPCs: %s", err.Error()),
		)
		return
	}

	config.ID = types.StringValue("cpcs")
	config.CPCs = make([]CPCModel, 0, len(cpcs))
	for _, cpc := range cpcs {
		config.CPCs = append(config.CPCs, CPCModel{
			Name:       types.StringValue(cpc.Name),
			ObjectURI:  types.StringValue(cpc.ObjectURI),
			Status:     types.StringValue(string(cpc.Status)),
			DPMEnabled: types.BoolValue(cpc.DPMEnabled),
			SEVersion:  types.StringValue(cpc.SEVersion),
		})
	}

	resp.Diagnostics.Append(resp.State.Set(ctx, &config)...)
}
