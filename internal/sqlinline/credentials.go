package sqlinline

const QCreateProviderCredentials = `--sql 96461d48-1dc4-40d0-8ff5-2b4f80999a46
create table if not exists provider_credentials (
  provider text primary key,
  api_key text not null,
  updated_at timestamptz not null default now()
);
`

const QSelectProviderCredential = `--sql e636133e-66ad-4c27-8efb-96cf0557ee05
select api_key
from provider_credentials
where provider = $1::text
limit 1;
`

const QUpsertProviderCredential = `--sql 302174ed-500f-4f39-ac6d-8764b21e1ffb
insert into provider_credentials (provider, api_key, updated_at)
values ($1::text, $2::text, now())
on conflict (provider) do update set
    api_key = excluded.api_key,
    updated_at = now();
`
