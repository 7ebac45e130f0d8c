package provider

import (
	"context"
	"os"

	"github.com/hashicorp/terraform-plugin-framework/datasource"
	"github.com/hashicorp/terraform-plugin-framework/provider"
	"github.com/hashicorp/terraform-plugin-framework/provider/schema"
	"github.com/hashicorp/terraform-plugin-framework/resource"
	"github.com/hashicorp/terraform-plugin-framework/types"
	"github.com/zhmcclient/zhmc-go/pkg/zhmc"
)

// Ensure ZHMCProvider satisfies various provider interfaces.
var _ provider.Provider = &ZHMCProvider{}

// ZHMCProvider defines the provider implementation.
type ZHMCProvider struct {
	// version is set to the provider version on release, "dev" when the
	// provider is built and ran locally, and "test" when running acceptance
	// testing.
	version string
}

// ZHMCProviderModel describes the provider data model.
type ZHMCProviderModel struct {
	Host         types.String `tfsdk:"host"`
	Userid       types.String `tfsdk:"userid"`
	Password     types.String `tfsdk:"password"`
	NoVerifyCert types.Bool   `tfsdk:"no_verify_cert"`
}

func (p *ZHMCProvider) Metadata(ctx context.Context, req provider.MetadataRequest, resp *provider.MetadataResponse) {
	resp.TypeName = "zhmc"
	resp.Version = p.version
}

func (p *ZHMCProvider) Schema(ctx context.Context, req provider.SchemaRequest, resp *provider.SchemaResponse) {
	resp.Schema = schema.Schema{
		MarkdownDescription: "IBM Z Hardware Management Console (HMC) Provider",
		Attributes: map[string]schema.Attribute{
			"host": schema.StringAttribute{
				MarkdownDescription: "Hostname or IP address of the HMC. Can also be set via ZHMC_HOST environment variable.",
				Optional:            true,
			},
			"userid": schema.StringAttribute{
				MarkdownDescription: "Userid on the HMC. Can also be set via ZHMC_USERID environment variable.",
				Optional:            true,
			},
			"password": schema.StringAttribute{
				MarkdownDescription: "Password of the HMC userid. Can also be set via ZHMC_PASSWORD environment variable.",
				Optional:            true,
				Sensitive:           true,
			},
			"no_verify_cert": schema.BoolAttribute{
				MarkdownDescription: "Do not verify the HMC server certificate. Can also be set via ZHMC_NO_VERIFY_CERT environment variable.",
				Optional:            true,
			},
		},
	}
}

func (p *ZHMCProvider) Configure(ctx context.Context, req provider.ConfigureRequest, resp *provider.ConfigureResponse) {
	var data ZHMCProviderModel

	resp.Diagnostics.Append(req.Config.Get(ctx, &data)...)

	if resp.Diagnostics.HasError() {
		return
	}

	// Get connection data from configuration or environment variables
	host := data.Host.ValueString()
	if host == "" {
		host = os.Getenv("ZHMC_HOST")
	}

	userid := data.Userid.ValueString()
	if userid == "" {
		userid = os.Getenv("ZHMC_USERID")
	}

	password := data.Password.ValueString()
	if password == "" {
		password = os.Getenv("ZHMC_PASSWORD")
	}

	noVerify := data.NoVerifyCert.ValueBool()
	if !noVerify {
		v := os.Getenv("ZHMC_NO_VERIFY_CERT")
		noVerify = v == "1" || v == "true" || v == "yes"
	}

	// Validate that connection data is provided
	if host == "" {
		resp.Diagnostics.AddError(
			"missing host configuration",
			"host must be set in provider configuration or via ZHMC_HOST environment variable",
		)
	}

	if userid == "" {
		resp.Diagnostics.AddError(
			"missing userid configuration",
			"userid must be set in provider configuration or via ZHMC_USERID environment variable",
		)
	}

	if password == "" {
		resp.Diagnostics.AddError(
			"missing password configuration",
			"password must be set in provider configuration or via ZHMC_PASSWORD environment variable",
		)
	}

	if resp.Diagnostics.HasError() {
		return
	}

	// Create zhmc client
	var opts []zhmc.ClientOption

	if noVerify {
		opts = append(opts, zhmc.WithSkipTLSVerify(true))
	}

	client := zhmc.NewClient(host, userid, password, opts...)

	resp.DataSourceData = client
	resp.ResourceData = client
}

func (p *ZHMCProvider) Resources(ctx context.Context) []func() resource.Resource {
	return []func() resource.Resource{
		NewAutoStartListResource,
		NewCPCPropertiesResource,
	}
}

func (p *ZHMCProvider) DataSources(ctx context.Context) []func() datasource.DataSource {
	return []func() datasource.DataSource{
		NewCPCDataSource,
		NewCPCsDataSource,
		NewAPIFeaturesDataSource,
	}
}

func New(version string) func() provider.Provider {
	return func() provider.Provider {
		return &ZHMCProvider{
			version: version,
		}
	}
}
