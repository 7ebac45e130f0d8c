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
var _ datasource.DataSource = &CPCDataSource{}

// NewCPCDataSource is a helper function to simplify the provider implementation.
func NewCPCDataSource() datasource.DataSource {
	return &CPCDataSource{}
}

// CPCDataSource is the data source implementation.
type CPCDataSource struct {
	client *zhmc.Client
}

// CPCDataSourceModel describes the data source data model.
type CPCDataSourceModel struct {
	Name                types.String `tfsdk:"name"`
	ObjectURI           types.String `tfsdk:"object_uri"`
	Status              types.String `tfsdk:"status"`
	DPMEnabled          types.Bool   `tfsdk:"dpm_enabled"`
	SEVersion           types.String `tfsdk:"se_version"`
	Description         types.String `tfsdk:"description"`
	MachineType         types.String `tfsdk:"machine_type"`
	MachineModel        types.String `tfsdk:"machine_model"`
	MachineSerialNumber types.String `tfsdk:"machine_serial_number"`
}

// Metadata returns the data source type name.
func (d *CPCDataSource) Metadata(_ context.Context, req datasource.MetadataRequest, resp *datasource.MetadataResponse) {
	resp.TypeName = req.ProviderTypeName + "_cpc"
}

// Schema defines the schema for the data source.
func (d *CPCDataSource) Schema(_ context.Context, _ datasource.SchemaRequest, resp *datasource.SchemaResponse) {
	resp.Schema = schema.Schema{
		MarkdownDescription: "Fetches information about a specific CPC managed by the HMC.",
		Attributes: map[string]schema.Attribute{
			"name": schema.StringAttribute{
				MarkdownDescription: "Name of the CPC",
				Required:            true,
			},
			"object_uri": schema.StringAttribute{
				MarkdownDescription: "Canonical URI of the CPC object",
				Computed:            true,
			},
			"status": schema.StringAttribute{
				MarkdownDescription: "Status of the CPC (active, operating, etc.)",
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
			"description": schema.StringAttribute{
				MarkdownDescription: "Description of the CPC",
				Computed:            true,
			},
			"machine_type": schema.StringAttribute{
				MarkdownDescription: "Machine type (e.g. 3931)",
				Computed:            true,
			},
			"machine_model": schema.StringAttribute{
				MarkdownDescription: "Machine model (e.g. A01)",
				Computed:            true,
			},
			"machine_serial_number": schema.StringAttribute{
				MarkdownDescription: "Machine serial number",
				Computed:            true,
			},
		},
	}
}

// Configure adds the provider configured client to the data source.
func (d *CPCDataSource) Configure(_ context.Context, req datasource.ConfigureRequest, resp *datasource.ConfigureResponse) {
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
func (d *CPCDataSource) Read(ctx context.Context, req datasource.ReadRequest, resp *datasource.ReadResponse) {
	var config CPCDataSourceModel

	resp.Diagnostics.Append(req.Config.Get(ctx, &config)...)
	if resp.Diagnostics.HasError() {
		return
	}

	name := config.Name.ValueString()
	cpc, err := d.client.CPC.FindByName(ctx, name)
	if err != nil {
		resp.Diagnostics.AddError(
			"error reading cpc",
			fmt.Sprintf("could not read CPC %s: %s", name, err.Error()),
		)
		return
	}

	props, err := d.client.CPC.GetProperties(ctx, cpc.ObjectURI)
	if err != nil {
		resp.Diagnostics.AddError(
			"error reading cpc properties",
			fmt.Sprintf("could not read properties of CPC %s: %s", name, err.Error()),
		)
		return
	}

	// Map API response to data source model
	config.ObjectURI = types.StringValue(cpc.ObjectURI)
	config.Status = types.StringValue(string(cpc.Status))
	config.DPMEnabled = types.BoolValue(cpc.DPMEnabled)
	config.SEVersion = types.StringValue(cpc.SEVersion)
	config.Description = types.StringValue(stringProp(props, "description"))
	config.MachineType = types.StringValue(stringProp(props, "machine-type"))
	config.MachineModel = types.StringValue(stringProp(props, "machine-model"))
	config.MachineSerialNumber = types.StringValue(stringProp(props, "machine-serial-number"))

	resp.Diagnostics.Append(resp.State.Set(ctx, &config)...)
}

// stringProp returns a string-valued HMC property, or "" when absent.
func stringProp(props zhmc.Properties, key string) string {
	if v, ok := props[key].(string); ok {
		return v
	}
	return ""
}
