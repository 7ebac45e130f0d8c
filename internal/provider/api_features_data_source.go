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
var _ datasource.DataSource = &APIFeaturesDataSource{}

// NewAPIFeaturesDataSource is a helper function to simplify the provider implementation.
func NewAPIFeaturesDataSource() datasource.DataSource {
	return &APIFeaturesDataSource{}
}

// APIFeaturesDataSource is the data source implementation.
type APIFeaturesDataSource struct {
	client *zhmc.Client
}

// APIFeaturesDataSourceModel describes the data source data model.
type APIFeaturesDataSourceModel struct {
	CPC      types.String   `tfsdk:"cpc"`
	Features []types.String `tfsdk:"features"`
	ID       types.String   `tfsdk:"id"`
}

// Metadata returns the data source type name.
func (d *APIFeaturesDataSource) Metadata(_ context.Context, req datasource.MetadataRequest, resp *datasource.MetadataResponse) {
	resp.TypeName = req.ProviderTypeName + "_api_features"
}

// Schema defines the schema for the data source.
func (d *APIFeaturesDataSource) Schema(_ context.Context, _ datasource.SchemaRequest, resp *datasource.SchemaResponse) {
	resp.Schema = schema.Schema{
		MarkdownDescription: "Fetches the Web Services API features available on the HMC, or on a specific CPC.",
		Attributes: map[string]schema.Attribute{
			"id": schema.StringAttribute{
				MarkdownDescription: "Placeholder identifier (always set to 'api_features')",
				Computed:            true,
			},
			"cpc": schema.StringAttribute{
				MarkdownDescription: "Name of a CPC whose API features are fetched; default is the HMC itself",
				Optional:            true,
			},
			"features": schema.ListAttribute{
				MarkdownDescription: "Names of the available API features",
				Computed:            true,
				ElementType:         types.StringType,
			},
		},
	}
}

// Configure adds the provider configured client to the data source.
func (d *APIFeaturesDataSource) Configure(_ context.Context, req datasource.ConfigureRequest, resp *datasource.ConfigureResponse) {
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
func (d *APIFeaturesDataSource) Read(ctx context.Context, req datasource.ReadRequest, resp *datasource.ReadResponse) {
	var config APIFeaturesDataSourceModel

	resp.Diagnostics.Append(req.Config.Get(ctx, &config)...)
	if resp.Diagnostics.HasError() {
		return
	}

	var features []string
	var err error
	if config.CPC.IsNull() || config.CPC.ValueString() == "" {
		features, err = d.client.Console.ListAPIFeatures(ctx, "")
	} else {
		var cpc *zhmc.CPC
		cpc, err = d.client.CPC.FindByName(ctx, config.CPC.ValueString())
		if err == nil {
			features, err = d.client.CPC.ListAPIFeatures(ctx, cpc.ObjectURI, "")
		}
	}
	if err != nil {
		resp.Diagnostics.AddError(
			"error listing api features",
			fmt.Sprintf("could not list API features: %s", err.Error()),
		)
		return
	}

	config.ID = types.StringValue("api_features")
	config.Features = make([]types.String, 0, len(features))
	for _, f := range features {
		config.Features = append(config.Features, types.StringValue(f))
	}

	resp.Diagnostics.Append(resp.State.Set(ctx, &config)...)
}
